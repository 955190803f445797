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
	"io"
	"os"

	"github.com/SnellerInc/xsort/xsv"
)

// rowOverhead is the fixed per-row constant added to
// the field bytes by rowSize.
const rowOverhead = 16

// rowSize estimates the in-memory footprint of a row:
// one byte of slack per field on top of the field
// bytes, plus rowOverhead. The estimate only has to be
// deterministic; chunk sizing does not depend on it
// being exact.
func rowSize(row xsv.Row) int64 {
	n := int64(rowOverhead)
	for i := range row {
		n += int64(len(row[i])) + 1
	}
	return n
}

// chunkWriter writes one scratch chunk through the
// spill codec.
type chunkWriter struct {
	path string
	size int64
	f    *os.File
	zw   io.WriteCloser
	w    *xsv.Writer
}

func (r *run) newChunk() (*chunkWriter, error) {
	path := r.ws.next("chunk", r.codec.Ext())
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("split: creating %s: %w", path, err)
	}
	zw := r.codec.Writer(f)
	return &chunkWriter{
		path: path,
		f:    f,
		zw:   zw,
		w:    xsv.NewWriter(zw, 0, xsv.QuoteMinimal),
	}, nil
}

func (c *chunkWriter) add(row xsv.Row) error {
	c.size += rowSize(row)
	return c.w.Write(row)
}

func (c *chunkWriter) close() error {
	err := c.w.Flush()
	if err2 := c.zw.Close(); err == nil {
		err = err2
	}
	if err2 := c.f.Close(); err == nil {
		err = err2
	}
	return err
}

// split streams rows from src into chunk files,
// sealing a chunk once the row just written pushes its
// estimated size over the cap. Chunks are created
// lazily, so zero data rows produce zero chunks, and
// chunk order follows input order, which the merge
// tie-break depends on. Rows too short for the sort
// key are rejected here so the later phases can index
// key columns unchecked.
func (r *run) split(src *xsv.Reader) ([]string, error) {
	var chunks []string
	var cur *chunkWriter
	defer func() {
		// discard a partial chunk on error paths
		if cur != nil {
			cur.close()
		}
	}()
	max := r.conf.maxChunkSize()
	need := keyWidth(r.key)
	for {
		row, err := src.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("split: reading input: %w", err)
		}
		r.rows++
		if len(row) < need {
			return nil, shortRow(r.rows, len(row), need)
		}
		if r.in != nil {
			r.in.add(row)
		}
		if cur == nil {
			cur, err = r.newChunk()
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, cur.path)
		}
		if err := cur.add(row); err != nil {
			return nil, fmt.Errorf("split: writing %s: %w", cur.path, err)
		}
		if cur.size > max {
			last := cur
			cur = nil
			if err := last.close(); err != nil {
				return nil, fmt.Errorf("split: closing %s: %w", last.path, err)
			}
		}
	}
	if cur != nil {
		last := cur
		cur = nil
		if err := last.close(); err != nil {
			return nil, fmt.Errorf("split: closing %s: %w", last.path, err)
		}
	}
	return chunks, nil
}
