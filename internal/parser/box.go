package parser

import "io"

// BoxEntry is one installed box as listed by `vagrant box list`
type BoxEntry struct {
	Name     string `json:"name" yaml:"name"`
	Provider string `json:"provider" yaml:"provider"`
	Version  string `json:"version" yaml:"version"`
}

// ParseBoxList builds the box list from `vagrant box list --machine-readable`.
//
// Box records are global and carry no grouping key: box-name opens a new
// entry and box-provider/box-version fill in the most recent one. Box records
// with a target are not part of the listing and are ignored.
func ParseBoxList(r io.Reader, opts Options) ([]BoxEntry, []Warning, error) {
	d := NewDecoder(r, opts)

	var boxes []BoxEntry
	err := d.each(func(rec Record) error {
		switch rec.Type {
		case TypeBoxName, TypeBoxProvider, TypeBoxVersion:
		default:
			return nil
		}
		if rec.Target != "" {
			return nil
		}
		if len(rec.Data) == 0 {
			return d.malformedRecord(rec, rec.Type+" record has no data field")
		}

		if rec.Type == TypeBoxName {
			boxes = append(boxes, BoxEntry{Name: rec.Data[0]})
			return nil
		}
		if len(boxes) == 0 {
			return d.malformedRecord(rec, rec.Type+" before any box-name")
		}

		current := &boxes[len(boxes)-1]
		if rec.Type == TypeBoxProvider {
			current.Provider = rec.Data[0]
		} else {
			current.Version = rec.Data[0]
		}
		return nil
	})
	if err != nil {
		return nil, d.Warnings(), err
	}
	return boxes, d.Warnings(), nil
}
