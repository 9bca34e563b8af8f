package parser

import (
	"io"
	"strings"
)

// PluginEntry is one installed plugin as listed by `vagrant plugin list`
type PluginEntry struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	// System marks plugins bundled with vagrant itself
	System       bool     `json:"system" yaml:"system"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// ParsePluginList builds the plugin list from
// `vagrant plugin list --machine-readable`.
//
// plugin-name opens an entry; plugin-version and plugin-dependency fill the
// most recent one. vagrant emits the version with the plugin name as target,
// so targets are not checked here.
func ParsePluginList(r io.Reader, opts Options) ([]PluginEntry, []Warning, error) {
	d := NewDecoder(r, opts)

	var plugins []PluginEntry
	err := d.each(func(rec Record) error {
		switch rec.Type {
		case TypePluginName, TypePluginVersion, TypePluginDependency:
		default:
			return nil
		}
		if len(rec.Data) == 0 {
			return d.malformedRecord(rec, rec.Type+" record has no data field")
		}

		if rec.Type == TypePluginName {
			plugins = append(plugins, PluginEntry{Name: rec.Data[0]})
			return nil
		}
		if len(plugins) == 0 {
			return d.malformedRecord(rec, rec.Type+" before any plugin-name")
		}

		current := &plugins[len(plugins)-1]
		if rec.Type == TypePluginVersion {
			current.Version, current.System = splitPluginVersion(rec.Data)
		} else {
			current.Dependencies = append(current.Dependencies, rec.Data[0])
		}
		return nil
	})
	if err != nil {
		return nil, d.Warnings(), err
	}
	return plugins, d.Warnings(), nil
}

// splitPluginVersion handles versions like "1.1.3, system", where the comma
// may arrive encoded, escaped or as a separate field
func splitPluginVersion(data []string) (string, bool) {
	v := strings.ReplaceAll(strings.Join(data, ","), vagrantComma, ",")
	version, rest, found := strings.Cut(v, ",")
	return strings.TrimSpace(version), found && strings.EqualFold(strings.TrimSpace(rest), "system")
}
