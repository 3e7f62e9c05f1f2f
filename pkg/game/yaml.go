package game

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/beltline/beltline/pkg/errors"
)

// ReadYAML decodes and validates a GameDefinition from YAML. Hand-edited
// catalogs are much friendlier to maintain as YAML; the in-memory result
// is identical to the JSON path and exports back out as JSON.
func ReadYAML(r io.Reader) (*GameDefinition, error) {
	var g GameDefinition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGameData, err, "decode game definition yaml")
	}
	if err := Validate(&g); err != nil {
		return nil, err
	}
	applySettingsDefaults(&g)
	return &g, nil
}

// ReadYAMLFile reads and validates a game definition from a YAML file.
func ReadYAMLFile(path string) (*GameDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	g, err := ReadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
