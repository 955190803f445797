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

// Package xsv reads and writes rows of delimited text
// such as CSV (RFC 4180) and TSV.
package xsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"
)

// Delim is a field delimiter.
type Delim rune

// ParseDelim interprets a delimiter as spelled on a
// command line or in a job file: a single character
// stands for itself, the two-character escape `\t`
// stands for a tab, and the empty string stands for
// comma.
func ParseDelim(s string) (Delim, error) {
	switch s {
	case "":
		return 0, nil
	case `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q is not a single character", s)
	}
	return Delim(r), nil
}

// Row is a single record of a delimited file.
// Fields hold the decoded text; quoting is resolved
// on read and re-applied on write.
type Row []string

// Clone returns a copy of r that does not alias
// the original backing array.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Reader reads rows from a delimited stream.
type Reader struct {
	// Separator is the field delimiter
	// (defaults to comma).
	Separator Delim
	// Reuse lets Read overwrite the previously
	// returned row instead of allocating a fresh
	// one. Streaming callers that never retain a
	// row past the next Read should set it.
	Reuse bool

	cr *csv.Reader
}

// NewReader returns a Reader reading rows from r
// split on the given delimiter.
func NewReader(r io.Reader, sep Delim) *Reader {
	rd := &Reader{Separator: sep}
	rd.Reset(r)
	return rd
}

// Reset discards the reader state and switches
// to reading from src.
func (r *Reader) Reset(src io.Reader) {
	r.cr = csv.NewReader(src)
	r.cr.FieldsPerRecord = -1
	r.cr.ReuseRecord = r.Reuse
	r.cr.LazyQuotes = true
	if r.Separator != 0 {
		r.cr.Comma = rune(r.Separator)
	}
}

// Read returns the next row, or io.EOF after the
// final row. Due to quoting a row may span multiple
// lines of text; blank lines are skipped. Rows are
// not required to have equal field counts.
func (r *Reader) Read() (Row, error) {
	fields, err := r.cr.Read()
	if err != nil {
		return nil, err
	}
	return Row(fields), nil
}
