// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"io"
)

// StatusEntry is the state of one machine as reported by `vagrant status`
type StatusEntry struct {
	Name     string `json:"name" yaml:"name"`
	State    string `json:"state" yaml:"state"`
	Provider string `json:"provider" yaml:"provider"`
}

// providerStates maps provider specific state names onto the names the
// virtualbox provider uses, so callers can compare against one set
var providerStates = map[string]map[string]string{
	"libvirt": {
		"shutoff": "poweroff",
		"paused":  "saved",
	},
}

// NormalizeState maps a provider specific state onto the common state name
func NormalizeState(state, provider string) string {
	if mapped, ok := providerStates[provider][state]; ok {
		return mapped
	}
	return state
}

type statusAcc struct {
	state    string
	hasState bool
	provider string
}

// ParseStatus builds one StatusEntry per machine from the output of
// `vagrant status --machine-readable`. Machines are returned in the order
// they first appear. A machine without a provider-name record gets an empty
// provider. A machine with more than one state record is malformed; in
// lenient mode the first state is kept.
func ParseStatus(r io.Reader, opts Options) ([]StatusEntry, []Warning, error) {
	d := NewDecoder(r, opts)

	var order []string
	machines := make(map[string]*statusAcc)

	err := d.each(func(rec Record) error {
		if rec.Target == "" {
			return nil
		}
		if rec.Type != TypeState && rec.Type != TypeProviderName {
			return nil
		}
		if len(rec.Data) == 0 {
			return d.malformedRecord(rec, rec.Type+" record has no data field")
		}

		acc, ok := machines[rec.Target]
		if !ok {
			acc = &statusAcc{}
			machines[rec.Target] = acc
			order = append(order, rec.Target)
		}

		switch rec.Type {
		case TypeState:
			if acc.hasState {
				return d.malformedRecord(rec, "duplicate state for "+rec.Target)
			}
			acc.state = rec.Data[0]
			acc.hasState = true
		case TypeProviderName:
			acc.provider = rec.Data[0]
		}
		return nil
	})
	if err != nil {
		return nil, d.Warnings(), err
	}

	entries := make([]StatusEntry, 0, len(order))
	for _, name := range order {
		acc := machines[name]
		if !acc.hasState {
			continue
		}
		entries = append(entries, StatusEntry{
			Name:     name,
			State:    NormalizeState(acc.state, acc.provider),
			Provider: acc.provider,
		})
	}
	return entries, d.Warnings(), nil
}
