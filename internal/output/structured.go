package output

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vagrant-mcp/govagrant/internal/parser"
)

// YAMLFormatter formats records as YAML.
type YAMLFormatter struct{}

func marshalYAML(v interface{}, what string) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to YAML: %w", what, err)
	}
	return string(data), nil
}

// FormatStatus formats machine states as a YAML list.
func (f *YAMLFormatter) FormatStatus(entries []parser.StatusEntry) (string, error) {
	return marshalYAML(nonNil(entries), "status")
}

// FormatBoxes formats installed boxes as a YAML list.
func (f *YAMLFormatter) FormatBoxes(boxes []parser.BoxEntry) (string, error) {
	return marshalYAML(nonNil(boxes), "boxes")
}

// FormatPlugins formats installed plugins as a YAML list.
func (f *YAMLFormatter) FormatPlugins(plugins []parser.PluginEntry) (string, error) {
	return marshalYAML(nonNil(plugins), "plugins")
}

// FormatSSHConfig formats ssh settings as a YAML mapping.
func (f *YAMLFormatter) FormatSSHConfig(conf parser.SSHConfig) (string, error) {
	return marshalYAML(map[string]string(conf), "ssh config")
}

// JSONFormatter formats records as indented JSON.
type JSONFormatter struct{}

func marshalJSON(v interface{}, what string) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to JSON: %w", what, err)
	}
	return string(data) + "\n", nil
}

// FormatStatus formats machine states as a JSON array.
func (f *JSONFormatter) FormatStatus(entries []parser.StatusEntry) (string, error) {
	return marshalJSON(nonNil(entries), "status")
}

// FormatBoxes formats installed boxes as a JSON array.
func (f *JSONFormatter) FormatBoxes(boxes []parser.BoxEntry) (string, error) {
	return marshalJSON(nonNil(boxes), "boxes")
}

// FormatPlugins formats installed plugins as a JSON array.
func (f *JSONFormatter) FormatPlugins(plugins []parser.PluginEntry) (string, error) {
	return marshalJSON(nonNil(plugins), "plugins")
}

// FormatSSHConfig formats ssh settings as a JSON object.
func (f *JSONFormatter) FormatSSHConfig(conf parser.SSHConfig) (string, error) {
	return marshalJSON(map[string]string(conf), "ssh config")
}

// nonNil makes empty lists render as [] instead of null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
