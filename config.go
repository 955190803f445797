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
	"github.com/SnellerInc/xsort/xsv"
)

const (
	// DefaultMaxChunkSize is the chunk size cap
	// applied when Config.MaxChunkSize is zero.
	DefaultMaxChunkSize = int64(100 * 1024 * 1024)
	// DefaultFanIn is the merge fan-in applied when
	// Config.FanIn is zero.
	DefaultFanIn = 2
)

// Config describes how to sort one file.
//
// Only Columns has to be populated; the zero value of
// every other field selects a sensible default.
type Config struct {
	// Columns is the sort key, most significant
	// column first. It must not be empty.
	Columns []ColumnSpec
	// Output is the destination path. When empty,
	// the input file is overwritten in place. A .gz
	// or .zst suffix compresses the destination, just
	// as those suffixes decompress the input.
	Output string
	// MaxChunkSize caps the estimated in-memory byte
	// size of each chunk (DefaultMaxChunkSize when
	// zero). The cap is soft: a chunk is sealed by the
	// row that pushes it over, so a chunk may exceed
	// the cap by one row and always holds at least
	// one row.
	MaxChunkSize int64
	// NoHeader treats the first row as data rather
	// than as a header.
	NoHeader bool
	// Separator is the field delimiter of the input
	// and of the destination (comma when zero).
	Separator xsv.Delim
	// Quoting is the quoting policy applied to the
	// destination (minimal when zero).
	Quoting xsv.Quoting
	// Encoding names the character encoding of the
	// input and of the destination, e.g. "latin1".
	// Empty means UTF-8.
	Encoding string
	// FanIn is how many files each merge combines
	// (DefaultFanIn when less than 2).
	FanIn int
	// Compression names the codec applied to scratch
	// files inside the workspace: "none", "zstd" or
	// "s2". Compressed scratch files trade CPU for
	// workspace disk space.
	Compression string
	// Threads caps how many chunks are sorted
	// concurrently (1 when zero).
	Threads int
	// TempDir is where the workspace directory is
	// created (os.TempDir when empty).
	TempDir string
	// Verify fingerprints the rows going in and the
	// rows coming out and fails the sort if the output
	// is not a permutation of the input.
	Verify bool
	// Logf, if non-nil, receives diagnostics while the
	// sort runs.
	Logf func(f string, args ...interface{})
}

func (c *Config) logf(f string, args ...interface{}) {
	if c.Logf != nil {
		c.Logf(f, args...)
	}
}

func (c *Config) maxChunkSize() int64 {
	if c.MaxChunkSize <= 0 {
		return DefaultMaxChunkSize
	}
	return c.MaxChunkSize
}

func (c *Config) fanin() int {
	if c.FanIn < 2 {
		return DefaultFanIn
	}
	return c.FanIn
}

func (c *Config) threads() int {
	if c.Threads < 1 {
		return 1
	}
	return c.Threads
}
