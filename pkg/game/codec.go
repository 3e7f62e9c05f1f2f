package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/beltline/beltline/pkg/errors"
)

// Import decodes and validates a GameDefinition from JSON bytes.
//
// Decoding is strict about types: a string where a number is expected is
// a failure, not a coercion. Validation failures come back as structured
// errors with code INVALID_GAME_DATA; they are never panics and never
// partial results.
func Import(data []byte) (*GameDefinition, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes and validates a GameDefinition from r.
func Read(r io.Reader) (*GameDefinition, error) {
	var g GameDefinition
	dec := json.NewDecoder(r)
	if err := dec.Decode(&g); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGameData, err, "decode game definition")
	}
	if err := Validate(&g); err != nil {
		return nil, err
	}
	applySettingsDefaults(&g)
	return &g, nil
}

// ReadFile reads and validates a game definition from a JSON file.
func ReadFile(path string) (*GameDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	g, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Export encodes a GameDefinition as indented JSON. The output is a
// lossless round-trip: Import(Export(g)) reproduces g for any valid g.
func Export(g *GameDefinition) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes a GameDefinition as indented JSON to w.
func Write(g *GameDefinition, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode game definition: %w", err)
	}
	return nil
}

// WriteFile writes a game definition to a JSON file with 0644 permissions.
func WriteFile(g *GameDefinition, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}

// applySettingsDefaults fills in the zero-value settings an older export
// may lack. Defaults match the reference catalog.
func applySettingsDefaults(g *GameDefinition) {
	if g.Settings.RateUnit == "" {
		g.Settings.RateUnit = RatePerMinute
	}
	if g.Settings.LanesPerBelt == 0 {
		g.Settings.LanesPerBelt = 1
	}
	if g.Settings.GridSize == 0 {
		g.Settings.GridSize = 20
	}
}
