// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package xsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Quoting selects when Writer quotes fields.
type Quoting int

const (
	// QuoteMinimal quotes a field only when leaving
	// it bare would change how the record reads back.
	QuoteMinimal Quoting = iota
	// QuoteAll quotes every field.
	QuoteAll
	// QuoteNone never quotes; writing a field that
	// cannot be represented without quotes fails
	// with ErrNeedsQuote.
	QuoteNone
)

// ErrNeedsQuote is returned by Writer.Write under the
// QuoteNone policy when a field contains the separator,
// a quote, or a line break.
var ErrNeedsQuote = errors.New("field requires quoting")

// ParseQuoting maps a policy name ("minimal", "all" or
// "none") to its Quoting. The empty string selects
// QuoteMinimal.
func ParseQuoting(s string) (Quoting, error) {
	switch s {
	case "", "minimal":
		return QuoteMinimal, nil
	case "all":
		return QuoteAll, nil
	case "none":
		return QuoteNone, nil
	}
	return 0, fmt.Errorf("unknown quoting policy %q", s)
}

// Writer writes rows of delimited text. Records are
// terminated with '\n' and quotes are escaped by
// doubling, so anything Writer emits reads back
// losslessly through Reader.
type Writer struct {
	// Separator is the field delimiter
	// (defaults to comma).
	Separator Delim
	// Quoting is the quoting policy.
	Quoting Quoting

	wr *bufio.Writer
}

// NewWriter returns a Writer emitting rows to w.
func NewWriter(w io.Writer, sep Delim, q Quoting) *Writer {
	return &Writer{Separator: sep, Quoting: q, wr: bufio.NewWriter(w)}
}

func (w *Writer) sep() rune {
	if w.Separator != 0 {
		return rune(w.Separator)
	}
	return ','
}

// Write writes a single row.
// The row is buffered; call Flush to guarantee it has
// been handed to the underlying writer.
func (w *Writer) Write(row Row) error {
	sep := w.sep()
	for i, field := range row {
		if i > 0 {
			w.wr.WriteRune(sep)
		}
		err := w.writeField(field, sep, len(row) == 1)
		if err != nil {
			return err
		}
	}
	return w.wr.WriteByte('\n')
}

// Flush writes any buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	return w.wr.Flush()
}

func (w *Writer) writeField(field string, sep rune, lone bool) error {
	switch w.Quoting {
	case QuoteAll:
		return w.quote(field)
	case QuoteNone:
		if fieldNeedsQuote(field, sep, lone) {
			return fmt.Errorf("%q: %w", field, ErrNeedsQuote)
		}
		_, err := w.wr.WriteString(field)
		return err
	default:
		if fieldNeedsQuote(field, sep, lone) {
			return w.quote(field)
		}
		_, err := w.wr.WriteString(field)
		return err
	}
}

func (w *Writer) quote(field string) error {
	w.wr.WriteByte('"')
	for {
		i := strings.IndexByte(field, '"')
		if i < 0 {
			break
		}
		w.wr.WriteString(field[:i+1])
		w.wr.WriteByte('"')
		field = field[i+1:]
	}
	w.wr.WriteString(field)
	return w.wr.WriteByte('"')
}

// fieldNeedsQuote matches the conditions encoding/csv
// uses, with one addition: an empty field that is the
// only field of its record is quoted, since a bare
// empty record would read back as a blank line and
// disappear.
func fieldNeedsQuote(field string, sep rune, lone bool) bool {
	if field == "" {
		return lone
	}
	if field == `\.` {
		// special postgres end-of-data marker
		return true
	}
	if strings.ContainsRune(field, sep) || strings.ContainsAny(field, "\"\r\n") {
		return true
	}
	r1, _ := utf8.DecodeRuneInString(field)
	return unicode.IsSpace(r1)
}
