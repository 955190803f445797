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

package xsort

import (
	"errors"
	"fmt"
)

// Errors returned while resolving the sort key or
// validating rows against it. They are usually wrapped
// with extra context; test with errors.Is.
var (
	// ErrNoColumns indicates a Config with an empty
	// column list.
	ErrNoColumns = errors.New("no sort columns specified")
	// ErrNoHeader indicates a column referenced by
	// name on an input that has no header row.
	ErrNoHeader = errors.New("column name requires a header")
	// ErrColumnNotFound indicates a column name that
	// does not appear in the header row.
	ErrColumnNotFound = errors.New("column not in header")
	// ErrColumnRange indicates a column position
	// outside the header, or a negative one.
	ErrColumnRange = errors.New("column index out of range")
	// ErrShortRow indicates a data row with fewer
	// fields than the sort key reaches into.
	ErrShortRow = errors.New("row too short for sort key")
)

func badName(name string) error {
	return fmt.Errorf("%q: %w", name, ErrColumnNotFound)
}

func badIndex(idx, width int) error {
	return fmt.Errorf("column %d of %d: %w", idx, width, ErrColumnRange)
}

func shortRow(rownum int64, fields, need int) error {
	return fmt.Errorf("row %d has %d field(s), sort key needs %d: %w",
		rownum, fields, need, ErrShortRow)
}
