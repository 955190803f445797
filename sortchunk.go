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
	"sync"

	"github.com/SnellerInc/xsort/xsv"
	"golang.org/x/exp/slices"
)

// loadChunk reads an entire chunk file into memory.
func (r *run) loadChunk(path string) ([]xsv.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := r.codec.Reader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	rd := xsv.NewReader(zr, 0)
	var rows []xsv.Row
	for {
		row, err := rd.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// sortChunk sorts one chunk file in place: load it
// whole, stable-sort by the key columns, write it back
// over the same path. The stable sort keeps equal-key
// rows in input order; the merge tie-break preserves
// that order across passes.
func (r *run) sortChunk(path string) error {
	rows, err := r.loadChunk(path)
	if err != nil {
		return fmt.Errorf("sort: reading %s: %w", path, err)
	}
	key := r.key
	slices.SortStableFunc(rows, func(a, b xsv.Row) bool {
		return compareRows(a, b, key) < 0
	})
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sort: rewriting %s: %w", path, err)
	}
	zw := r.codec.Writer(f)
	w := xsv.NewWriter(zw, 0, xsv.QuoteMinimal)
	for i := range rows {
		if err := w.Write(rows[i]); err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("sort: rewriting %s: %w", path, err)
		}
	}
	err = w.Flush()
	if err2 := zw.Close(); err == nil {
		err = err2
	}
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return fmt.Errorf("sort: rewriting %s: %w", path, err)
	}
	return nil
}

// sortChunks sorts every chunk file, up to threads()
// of them at a time. Chunks are disjoint, so the
// concurrency cannot change the merged output.
func (r *run) sortChunks(chunks []string) error {
	threads := r.conf.threads()
	if threads > len(chunks) {
		threads = len(chunks)
	}
	if threads <= 1 {
		for _, path := range chunks {
			if err := r.sortChunk(path); err != nil {
				return err
			}
		}
		return nil
	}
	var (
		wg      sync.WaitGroup
		errLock sync.Mutex
		fail    error
	)
	requests := make(chan string)
	worker := func() {
		defer wg.Done()
		for path := range requests {
			err := r.sortChunk(path)
			if err != nil {
				errLock.Lock()
				if fail == nil {
					fail = err
				}
				errLock.Unlock()
			}
		}
	}
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go worker()
	}
	for _, path := range chunks {
		requests <- path
	}
	close(requests)
	wg.Wait()
	return fail
}
