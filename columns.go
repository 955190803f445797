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
	"fmt"
	"strconv"
	"strings"

	"github.com/SnellerInc/xsort/xsv"
)

// ColumnSpec selects one column of the sort key,
// either by header name or by zero-based position.
type ColumnSpec struct {
	// Name is the header name of the column. A
	// non-empty Name takes precedence over Index and
	// requires the input to carry a header row.
	Name string
	// Index is the zero-based position of the column.
	Index int
}

// Col returns a ColumnSpec selecting position i.
func Col(i int) ColumnSpec { return ColumnSpec{Index: i} }

// ColName returns a ColumnSpec selecting the column
// whose header entry equals name.
func ColName(name string) ColumnSpec { return ColumnSpec{Name: name} }

// ParseColumn interprets s the way the command line
// does: a string of decimal digits selects a position,
// anything else selects a header name. A header whose
// name is all digits can therefore only be selected
// by position.
func ParseColumn(s string) ColumnSpec {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return Col(n)
	}
	return ColName(s)
}

func (c ColumnSpec) String() string {
	if c.Name != "" {
		return c.Name
	}
	return strconv.Itoa(c.Index)
}

// resolveColumns maps specs to zero-based positions.
// header is nil when the input has no header row; then
// positional specs are trusted as-is and named specs
// fail with ErrNoHeader. With a header present,
// positional specs must fall inside it. A duplicated
// name resolves to its first occurrence, and the same
// column may appear in the key more than once.
func resolveColumns(specs []ColumnSpec, header xsv.Row) ([]int, error) {
	if len(specs) == 0 {
		return nil, ErrNoColumns
	}
	key := make([]int, len(specs))
	for i, spec := range specs {
		if spec.Name != "" {
			if header == nil {
				return nil, fmt.Errorf("%q: %w", spec.Name, ErrNoHeader)
			}
			idx := -1
			for j := range header {
				if header[j] == spec.Name {
					idx = j
					break
				}
			}
			if idx < 0 {
				return nil, badName(spec.Name)
			}
			key[i] = idx
			continue
		}
		if spec.Index < 0 || (header != nil && spec.Index >= len(header)) {
			return nil, badIndex(spec.Index, len(header))
		}
		key[i] = spec.Index
	}
	return key, nil
}

// compareRows orders two rows by the key columns: the
// first column whose values differ decides, comparing
// raw bytes. Rows equal in every key column compare
// equal no matter what the remaining fields hold. The
// chunk sorter and the merger share this comparison,
// which is what makes multi-pass merging agree with
// the in-memory sort.
func compareRows(a, b xsv.Row, key []int) int {
	for _, k := range key {
		if c := strings.Compare(a[k], b[k]); c != 0 {
			return c
		}
	}
	return 0
}

// keyWidth returns the field count a row needs so that
// every key column can index into it.
func keyWidth(key []int) int {
	w := 0
	for _, k := range key {
		if k+1 > w {
			w = k + 1
		}
	}
	return w
}
