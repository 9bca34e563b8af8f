package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/vagrant-mcp/govagrant/internal/parser"
)

// TableFormatter formats records as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (f *TableFormatter) table(header string, rows [][]string) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, header)
	}
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
	return buf.String()
}

// FormatStatus formats machine states as a table.
func (f *TableFormatter) FormatStatus(entries []parser.StatusEntry) (string, error) {
	if len(entries) == 0 {
		return "No machines found\n", nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Name, dash(e.State), dash(e.Provider)})
	}
	return f.table("NAME\tSTATE\tPROVIDER", rows), nil
}

// FormatBoxes formats installed boxes as a table.
func (f *TableFormatter) FormatBoxes(boxes []parser.BoxEntry) (string, error) {
	if len(boxes) == 0 {
		return "No boxes installed\n", nil
	}
	rows := make([][]string, 0, len(boxes))
	for _, b := range boxes {
		rows = append(rows, []string{b.Name, dash(b.Provider), dash(b.Version)})
	}
	return f.table("NAME\tPROVIDER\tVERSION", rows), nil
}

// FormatPlugins formats installed plugins as a table.
func (f *TableFormatter) FormatPlugins(plugins []parser.PluginEntry) (string, error) {
	if len(plugins) == 0 {
		return "No plugins installed\n", nil
	}
	rows := make([][]string, 0, len(plugins))
	for _, p := range plugins {
		system := "no"
		if p.System {
			system = "yes"
		}
		rows = append(rows, []string{p.Name, dash(p.Version), system, dash(strings.Join(p.Dependencies, ","))})
	}
	return f.table("NAME\tVERSION\tSYSTEM\tDEPENDENCIES", rows), nil
}

// FormatSSHConfig formats ssh settings as KEY VALUE rows sorted by key.
func (f *TableFormatter) FormatSSHConfig(conf parser.SSHConfig) (string, error) {
	keys := make([]string, 0, len(conf))
	for k := range conf {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, conf[k]})
	}
	return f.table("KEY\tVALUE", rows), nil
}
