package layout

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/coupon-studio/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// Preset is a named, ready-made field arrangement the operator can start
// from instead of the built-in defaults.
type Preset struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []models.Field `json:"fields" yaml:"fields"`
}

type presetCatalog struct {
	Presets []Preset `yaml:"presets"`
}

//go:embed presets.yaml
var builtinPresetsYAML []byte

// ParsePresets parses a YAML preset catalog from a reader.
func ParsePresets(r io.Reader) ([]Preset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parsePresetBytes(data)
}

// BuiltinPresets returns the preset catalog shipped with the binary.
func BuiltinPresets() ([]Preset, error) {
	return parsePresetBytes(builtinPresetsYAML)
}

func parsePresetBytes(data []byte) ([]Preset, error) {
	var catalog presetCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parsing preset catalog: %w", err)
	}
	for i := range catalog.Presets {
		catalog.Presets[i].Fields = Sanitize(catalog.Presets[i].Fields)
	}
	return catalog.Presets, nil
}
