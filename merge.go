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

// mergeCursor is one input stream of a merge group:
// its reader, the row under the cursor, and the
// stream's position within the group. Earlier streams
// hold earlier input rows, so ord is the tie-break
// that keeps equal-key rows in input order across
// merge passes.
type mergeCursor struct {
	rd  *xsv.Reader
	zr  io.ReadCloser
	f   *os.File
	row xsv.Row
	ord int
}

// advance moves the cursor to the next row; it reports
// false at the end of the stream.
func (m *mergeCursor) advance() (bool, error) {
	row, err := m.rd.Read()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	m.row = row
	return true, nil
}

func (m *mergeCursor) close() error {
	err := m.zr.Close()
	if err2 := m.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return fmt.Errorf("merge: closing %s: %w", m.f.Name(), err)
	}
	return nil
}

// openCursor opens one merge input and positions its
// cursor on the first row. Empty inputs yield a nil
// cursor.
func (r *run) openCursor(path string, ord int) (*mergeCursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("merge: opening %s: %w", path, err)
	}
	zr, err := r.codec.Reader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("merge: opening %s: %w", path, err)
	}
	rd := &xsv.Reader{Reuse: true}
	rd.Reset(zr)
	m := &mergeCursor{rd: rd, zr: zr, f: f, ord: ord}
	ok, err := m.advance()
	if err != nil {
		m.close()
		return nil, fmt.Errorf("merge: reading %s: %w", path, err)
	}
	if !ok {
		return nil, m.close()
	}
	return m, nil
}

// cursorHeap is a min-heap of merge cursors: the root
// holds the smallest current row by key comparison,
// with ties going to the earlier stream.
type cursorHeap struct {
	cur []*mergeCursor
	key []int
}

func (h *cursorHeap) less(a, b *mergeCursor) bool {
	if c := compareRows(a.row, b.row, h.key); c != 0 {
		return c < 0
	}
	return a.ord < b.ord
}

func (h *cursorHeap) push(m *mergeCursor) {
	h.cur = append(h.cur, m)
	h.siftUp(len(h.cur) - 1)
}

// pop removes and returns the root cursor.
func (h *cursorHeap) pop() *mergeCursor {
	x := h.cur
	ret := x[0]
	x[0], h.cur = x[len(x)-1], x[:len(x)-1]
	if len(h.cur) > 0 {
		h.siftDown(0)
	}
	return ret
}

func (h *cursorHeap) siftUp(index int) {
	x := h.cur
	for index > 0 {
		p := (index - 1) / 2
		if h.less(x[p], x[index]) {
			break
		}
		x[p], x[index] = x[index], x[p]
		index = p
	}
}

func (h *cursorHeap) siftDown(index int) {
	x := h.cur
	for {
		left := (index * 2) + 1
		right := left + 1
		if left >= len(x) {
			break
		}
		c := left
		if len(x) > right && h.less(x[right], x[left]) {
			c = right
		}
		if h.less(x[index], x[c]) {
			break
		}
		x[c], x[index] = x[index], x[c]
		index = c
	}
}

// mergeGroup merges the sorted files in srcs into one
// sorted file at dst. Each input contributes a single
// buffered row at a time, so the memory cost is a row
// per input rather than a file per input.
func (r *run) mergeGroup(dst string, srcs []string) error {
	h := &cursorHeap{key: r.key}
	defer func() {
		for _, m := range h.cur {
			m.close()
		}
	}()
	for ord, path := range srcs {
		m, err := r.openCursor(path, ord)
		if err != nil {
			return err
		}
		if m != nil {
			h.push(m)
		}
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("merge: creating %s: %w", dst, err)
	}
	zw := r.codec.Writer(f)
	w := xsv.NewWriter(zw, 0, xsv.QuoteMinimal)
	fail := func(err error) error {
		zw.Close()
		f.Close()
		return err
	}
	for len(h.cur) > 0 {
		m := h.cur[0]
		if err := w.Write(m.row); err != nil {
			return fail(fmt.Errorf("merge: writing %s: %w", dst, err))
		}
		ok, err := m.advance()
		if err != nil {
			return fail(fmt.Errorf("merge: reading %s: %w", m.f.Name(), err))
		}
		if ok {
			// the root changed; restore the invariant
			h.siftDown(0)
			continue
		}
		h.pop()
		if err := m.close(); err != nil {
			return fail(err)
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
		return fmt.Errorf("merge: writing %s: %w", dst, err)
	}
	return nil
}

// mergeAll merges the work list down to one file in
// passes: each pass walks the list in order, merging
// every fanin adjacent files and deleting the consumed
// inputs. Merging only adjacent files keeps every
// intermediate file a contiguous, stably-sorted run of
// the input, so the in-group tie-break carries input
// order among equal keys all the way to the final
// file. Zero files return "", meaning no rows survived
// to merge; a single file is returned as-is without a
// pass.
func (r *run) mergeAll(files []string) (string, error) {
	if len(files) == 0 {
		return "", nil
	}
	fanin := r.conf.fanin()
	for len(files) > 1 {
		next := make([]string, 0, (len(files)+fanin-1)/fanin)
		for len(files) > 0 {
			if len(files) == 1 {
				// odd one out; carried into the next pass
				next = append(next, files[0])
				break
			}
			n := fanin
			if n > len(files) {
				n = len(files)
			}
			group := files[:n]
			files = files[n:]
			dst := r.ws.next("merge", r.codec.Ext())
			r.conf.logf("merge %d: %d file(s) -> %s", r.merges, n, dst)
			if err := r.mergeGroup(dst, group); err != nil {
				return "", err
			}
			for _, path := range group {
				if err := os.Remove(path); err != nil {
					return "", fmt.Errorf("merge: %w", err)
				}
			}
			next = append(next, dst)
			r.merges++
		}
		files = next
	}
	return files[0], nil
}
