package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beltline/beltline/pkg/game"
)

// readGameFile reads the raw catalog bytes. The raw bytes are hashed for
// the cache key before any parsing happens.
func readGameFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// parseGame decodes and validates a catalog. The format is picked by
// file extension: .yaml and .yml go through the YAML reader, everything
// else is treated as JSON.
func parseGame(path string, raw []byte) (*game.GameDefinition, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		g, err := game.ReadYAML(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return g, nil
	default:
		g, err := game.Import(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return g, nil
	}
}
