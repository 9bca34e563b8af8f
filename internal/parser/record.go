// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

// Package parser decodes the output of `vagrant --machine-readable` and
// `vagrant ssh-config` into typed records.
//
// Machine-readable output is one record per line:
//
//	timestamp,target,type,data...
//
// A literal backslash, comma or newline inside a field is prefixed with a
// backslash. A physical line ending in such an escaped newline continues on
// the next one.
package parser

import (
	"strconv"
	"strings"
)

// Record is one decoded line of machine-readable output
type Record struct {
	Timestamp int64
	// Target is the machine name, empty for global records
	Target string
	Type   string
	Data   []string
	// Line is the physical line the record started on. Diagnostic only.
	Line int
}

// Datum returns the i-th data field, or "" if there is none
func (r Record) Datum(i int) string {
	if i < 0 || i >= len(r.Data) {
		return ""
	}
	return r.Data[i]
}

// Record types this package interprets. Anything else is passed through.
const (
	TypeState            = "state"
	TypeProviderName     = "provider-name"
	TypeBoxName          = "box-name"
	TypeBoxProvider      = "box-provider"
	TypeBoxVersion       = "box-version"
	TypePluginName       = "plugin-name"
	TypePluginVersion    = "plugin-version"
	TypePluginDependency = "plugin-dependency"
	TypeErrorExit        = "error-exit"
	TypeUI               = "ui"
	TypeMetadata         = "metadata"
)

func escapable(c byte) bool {
	return c == '\\' || c == ',' || c == '\n'
}

// SplitFields splits a logical line on unescaped commas and removes exactly
// one backslash in front of every backslash, comma or newline. A backslash
// in front of anything else is kept.
func SplitFields(line string) []string {
	var (
		fields []string
		cur    strings.Builder
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line) && escapable(line[i+1]):
			cur.WriteByte(line[i+1])
			i++
		case c == ',':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String())
}

// EscapeField is the inverse of the unescaping done by SplitFields
func EscapeField(s string) string {
	if !strings.ContainsAny(s, "\\,\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if escapable(s[i]) {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// FormatRecord renders r as a line that decodes back to r. The result has
// no trailing newline and may span several physical lines when a field
// contains a newline. The protocol has no escape for a carriage return, so
// one ending the last field reads back as part of a CRLF line ending and is
// dropped.
func FormatRecord(r Record) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(r.Timestamp, 10))
	b.WriteByte(',')
	b.WriteString(EscapeField(r.Target))
	b.WriteByte(',')
	b.WriteString(EscapeField(r.Type))
	for _, d := range r.Data {
		b.WriteByte(',')
		b.WriteString(EscapeField(d))
	}
	return b.String()
}

// parseRecord decodes one logical line. It returns a non-empty reason when
// the line does not have the record shape.
func parseRecord(logical string, line int) (Record, string) {
	fields := SplitFields(logical)
	if len(fields) < 3 {
		return Record{}, "expected timestamp,target,type"
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return Record{}, "timestamp is not a number"
	}

	rec := Record{
		Timestamp: ts,
		Target:    fields[1],
		Type:      fields[2],
		Line:      line,
	}
	if len(fields) > 3 {
		rec.Data = fields[3:]
	}
	return rec, ""
}

// vagrantComma is how vagrant encodes a comma inside human text
const vagrantComma = "%!(VAGRANT_COMMA)"

// DecodeText turns vagrant's encoded human text into plain text: encoded
// commas become commas and literal `\n` sequences become newlines.
func DecodeText(s string) string {
	s = strings.ReplaceAll(s, vagrantComma, ",")
	return strings.ReplaceAll(s, `\n`, "\n")
}
