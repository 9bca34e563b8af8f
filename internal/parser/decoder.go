// Copyright Ricardo Oliveira 2025.
// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/vagrant-mcp/govagrant/internal/errors"
)

// Options controls how malformed input is handled
type Options struct {
	// Strict makes the first malformed line fail the parse with a parse
	// error. Otherwise the line is skipped and reported as a Warning.
	Strict bool
}

// Warning describes a malformed line skipped in lenient mode
type Warning struct {
	Line   int    `json:"line" yaml:"line"`
	Text   string `json:"text" yaml:"text"`
	Reason string `json:"reason" yaml:"reason"`
}

// String returns the warning in "line N: reason" form
func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Reason)
}

// Decoder reads records one at a time from machine-readable output
type Decoder struct {
	r        *bufio.Reader
	opts     Options
	line     int
	warnings []Warning
	done     bool
}

// NewDecoder returns a decoder reading from r
func NewDecoder(r io.Reader, opts Options) *Decoder {
	return &Decoder{r: bufio.NewReader(r), opts: opts}
}

// Next returns the next record, or io.EOF once the input is exhausted.
// Blank lines are skipped. In strict mode a malformed line is returned as a
// parse error; in lenient mode it is recorded and skipped.
func (d *Decoder) Next() (Record, error) {
	for {
		logical, start, err := d.readLogical()
		if err != nil {
			return Record{}, err
		}
		if strings.TrimSpace(logical) == "" {
			continue
		}

		rec, reason := parseRecord(logical, start)
		if reason == "" {
			return rec, nil
		}
		if err := d.malformed(start, logical, reason); err != nil {
			return Record{}, err
		}
	}
}

// Warnings returns the lines skipped so far, in input order
func (d *Decoder) Warnings() []Warning {
	return d.warnings
}

// malformed applies the strictness policy to one bad line
func (d *Decoder) malformed(line int, text, reason string) error {
	if d.opts.Strict {
		return errors.ParseFailed(line, text, reason)
	}
	d.warnings = append(d.warnings, Warning{Line: line, Text: text, Reason: reason})
	return nil
}

// malformedRecord reports a record that has the right shape but the wrong
// content for its type
func (d *Decoder) malformedRecord(rec Record, reason string) error {
	return d.malformed(rec.Line, FormatRecord(rec), reason)
}

// readLogical reads physical lines until one does not end in an escaped
// newline. The escaped newlines are kept so SplitFields can unescape them.
func (d *Decoder) readLogical() (string, int, error) {
	if d.done {
		return "", d.line, io.EOF
	}

	var b strings.Builder
	start := d.line + 1
	for {
		chunk, err := d.r.ReadString('\n')
		if chunk == "" && err != nil {
			d.done = true
			if !stderrors.Is(err, io.EOF) {
				return "", start, fmt.Errorf("reading machine-readable output: %w", err)
			}
			if b.Len() > 0 {
				return b.String(), start, nil
			}
			return "", start, io.EOF
		}
		d.line++

		body := strings.TrimSuffix(chunk, "\n")
		terminated := len(body) < len(chunk)
		body = strings.TrimSuffix(body, "\r")

		if terminated && endsInEscape(body) {
			b.WriteString(body)
			b.WriteByte('\n')
			continue
		}

		b.WriteString(body)
		if err != nil && !stderrors.Is(err, io.EOF) {
			d.done = true
			return "", start, fmt.Errorf("reading machine-readable output: %w", err)
		}
		return b.String(), start, nil
	}
}

// endsInEscape reports whether s ends in an odd run of backslashes, i.e.
// whether the newline that followed it was escaped
func endsInEscape(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// ParseRecords decodes every record in r
func ParseRecords(r io.Reader, opts Options) ([]Record, []Warning, error) {
	d := NewDecoder(r, opts)
	var records []Record
	for {
		rec, err := d.Next()
		if stderrors.Is(err, io.EOF) {
			return records, d.Warnings(), nil
		}
		if err != nil {
			return nil, d.Warnings(), err
		}
		records = append(records, rec)
	}
}

// each feeds every record to fn, stopping at the first error
func (d *Decoder) each(fn func(Record) error) error {
	for {
		rec, err := d.Next()
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// ExitError is vagrant's own description of why a command failed, taken
// from an error-exit record
type ExitError struct {
	// Class is the Ruby error class, e.g. Vagrant::Errors::NoEnvironmentError
	Class   string
	Message string
}

func (e ExitError) Error() string {
	if e.Class == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

// ErrorExit returns the first error-exit record in records, if any
func ErrorExit(records []Record) (ExitError, bool) {
	for _, rec := range records {
		if rec.Type != TypeErrorExit {
			continue
		}
		exit := ExitError{Class: rec.Datum(0)}
		if len(rec.Data) > 1 {
			exit.Message = DecodeText(strings.Join(rec.Data[1:], ","))
		}
		return exit, true
	}
	return ExitError{}, false
}
