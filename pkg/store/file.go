package store

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/beltline/beltline/pkg/errors"
	"github.com/beltline/beltline/pkg/plan"
)

// FileStore keeps one JSON file per plan under a directory. Writes go
// through a temp file and rename, so a crash mid-write never leaves a
// truncated plan behind and a concurrent read sees either the old or
// the new version.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed plan store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create store dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes a plan under its ID.
func (s *FileStore) Save(ctx context.Context, p *plan.Plan) error {
	if p.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "plan has no ID")
	}
	data, err := plan.Export(p)
	if err != nil {
		return err
	}
	path := s.path(p.ID)
	tmp, err := os.CreateTemp(s.dir, ".plan-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save plan %s", p.ID)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStorage, err, "save plan %s", p.ID)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStorage, err, "save plan %s", p.ID)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStorage, err, "save plan %s", p.ID)
	}
	return nil
}

// Load reads a plan by ID.
func (s *FileStore) Load(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := plan.ReadFile(s.path(id))
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.New(errors.ErrCodePlanNotFound, "plan %q not found", id)
		}
		return nil, err
	}
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

// List returns the IDs of all stored plans.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list plans")
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// Delete removes a plan. Missing plans are not an error.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete plan %s", id)
	}
	return nil
}

// Close does nothing for the file backend.
func (s *FileStore) Close(ctx context.Context) error {
	return nil
}

func (s *FileStore) path(id string) string {
	// Plan IDs map directly to file names; separators are not allowed.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(id)
	return filepath.Join(s.dir, safe+".json")
}

// Ensure FileStore implements PlanStore.
var _ PlanStore = (*FileStore)(nil)
