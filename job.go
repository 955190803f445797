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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/SnellerInc/xsort/xsv"
)

// Job is the file-facing description of one sort: the
// knobs of Config plus the input path, decodable from
// YAML or JSON. For example:
//
//	input: sales.csv
//	output: sales-by-region.csv
//	columns: [region, 0, city]
//	maxChunkSizeMB: 100
//	compression: zstd
//
// Column entries are either header names or zero-based
// positions; a quoted string of digits still selects a
// position (see ParseColumn).
type Job struct {
	// Input is the file to sort.
	Input string `json:"input"`
	// Output is the destination path; empty means
	// overwrite Input.
	Output string `json:"output,omitempty"`
	// Columns is the sort key.
	Columns []ColumnSpec `json:"columns"`
	// MaxChunkSizeMB caps the estimated chunk size,
	// in mebibytes (100 when zero).
	MaxChunkSizeMB float64 `json:"maxChunkSizeMB,omitempty"`
	// NoHeader marks the input as headerless.
	NoHeader bool `json:"noHeader,omitempty"`
	// Delimiter is the field delimiter; see
	// xsv.ParseDelim for its syntax.
	Delimiter string `json:"delimiter,omitempty"`
	// Quoting is the output quoting policy:
	// "minimal", "all" or "none".
	Quoting string `json:"quoting,omitempty"`
	// Encoding names the input/output character
	// encoding (UTF-8 when empty).
	Encoding string `json:"encoding,omitempty"`
	// FanIn is the merge fan-in (2 when zero).
	FanIn int `json:"fanIn,omitempty"`
	// Compression is the scratch-file codec:
	// "none", "zstd" or "s2".
	Compression string `json:"compression,omitempty"`
	// Threads caps concurrent chunk sorts.
	Threads int `json:"threads,omitempty"`
	// TempDir overrides where the workspace lives.
	TempDir string `json:"tempDir,omitempty"`
	// Verify enables the row-fingerprint check.
	Verify bool `json:"verify,omitempty"`
}

// UnmarshalJSON accepts either a number, taken as a
// zero-based position, or a string interpreted by
// ParseColumn.
func (c *ColumnSpec) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 {
			return fmt.Errorf("column %d: %w", n, ErrColumnRange)
		}
		*c = Col(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("column spec %s: expected a name or a position", data)
	}
	*c = ParseColumn(s)
	return nil
}

// MarshalJSON is the inverse of UnmarshalJSON.
func (c ColumnSpec) MarshalJSON() ([]byte, error) {
	if c.Name != "" {
		return json.Marshal(c.Name)
	}
	return json.Marshal(c.Index)
}

// DecodeJob decodes a Job from YAML or JSON.
func DecodeJob(r io.Reader) (*Job, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	job := new(Job)
	if err := yaml.Unmarshal(buf, job); err != nil {
		return nil, fmt.Errorf("decoding job: %w", err)
	}
	if job.Input == "" {
		return nil, errors.New("job: missing input path")
	}
	if len(job.Columns) == 0 {
		return nil, fmt.Errorf("job: %w", ErrNoColumns)
	}
	return job, nil
}

// OpenJob reads a Job from the named file.
func OpenJob(path string) (*Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	job, err := DecodeJob(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}

// Config converts the job into the Config it
// describes. The input path stays on the Job; pass it
// to Config.Sort.
func (j *Job) Config() (*Config, error) {
	sep, err := xsv.ParseDelim(j.Delimiter)
	if err != nil {
		return nil, err
	}
	q, err := xsv.ParseQuoting(j.Quoting)
	if err != nil {
		return nil, err
	}
	return &Config{
		Columns:      j.Columns,
		Output:       j.Output,
		MaxChunkSize: int64(j.MaxChunkSizeMB * (1 << 20)),
		NoHeader:     j.NoHeader,
		Separator:    sep,
		Quoting:      q,
		Encoding:     j.Encoding,
		FanIn:        j.FanIn,
		Compression:  j.Compression,
		Threads:      j.Threads,
		TempDir:      j.TempDir,
		Verify:       j.Verify,
	}, nil
}
