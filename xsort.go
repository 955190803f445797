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

// Package xsort sorts delimited files of arbitrary
// size using bounded memory.
//
// A sort runs in three phases over a scratch
// workspace: the input is split into chunks no larger
// (estimated) than Config.MaxChunkSize, each chunk is
// sorted in memory and rewritten in place, and the
// sorted chunks are merged a few at a time until one
// file remains, which is re-encoded into the
// destination. Peak memory is one chunk plus one row
// per merge input, independent of the input size.
//
// Rows are ordered by byte-wise comparison of the key
// columns, most significant first. The sort is stable:
// rows with equal keys keep their input order. The
// output always holds exactly the input rows, with the
// header (when present) reproduced as the first row.
package xsort

import (
	"compress/gzip"
	"encoding/base32"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/encoding"

	"github.com/SnellerInc/xsort/compr"
	"github.com/SnellerInc/xsort/xsv"
)

// Result summarizes a finished sort.
type Result struct {
	// Rows is the number of data rows written; the
	// header is not counted.
	Rows int64
	// Chunks is the number of chunk files the input
	// was split into.
	Chunks int
	// Merges is the number of group merges performed.
	Merges int
	// Output is the path the sorted rows were
	// written to.
	Output string
	// ETag is a BLAKE2b-based content hash of the
	// bytes written to Output.
	ETag string
}

// run carries the state of one Sort call.
type run struct {
	conf   *Config
	key    []int
	ws     *workspace
	codec  compr.Codec
	in     *fingerprint
	out    *fingerprint
	rows   int64
	merges int
}

// Sort sorts the file at path according to c and
// returns a summary of what it did. A path ending in
// .gz or .zst is decompressed as it is read; the same
// suffixes on the destination compress it.
//
// Sort never writes a partial destination: the output
// file appears in one rename once every row has been
// written, and on any error the destination path is
// left exactly as it was. The scratch workspace is
// removed on success and failure alike.
func (c *Config) Sort(path string) (*Result, error) {
	if len(c.Columns) == 0 {
		return nil, ErrNoColumns
	}
	codec := compr.Compression(c.Compression)
	if codec == nil {
		return nil, fmt.Errorf("unknown compression %q", c.Compression)
	}
	enc, err := xsv.Encoding(c.Encoding)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	src, zc, err := openRows(f, path, enc, c.Separator)
	if err != nil {
		f.Close()
		return nil, err
	}
	closeInput := func() {
		if zc != nil {
			zc.Close()
			zc = nil
		}
		if f != nil {
			f.Close()
			f = nil
		}
	}
	defer closeInput()

	var header xsv.Row
	if !c.NoHeader {
		header, err = src.Read()
		if err == io.EOF {
			// no rows at all; treat as headerless
			header = nil
		} else if err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		} else {
			header = header.Clone()
		}
	}

	key, err := resolveColumns(c.Columns, header)
	if err != nil {
		return nil, err
	}

	ws, err := openWorkspace(c.TempDir)
	if err != nil {
		return nil, err
	}
	defer ws.remove()
	c.logf("sorting %s (workspace %s)", path, ws.dir)

	r := &run{conf: c, key: key, ws: ws, codec: codec}
	if c.Verify {
		r.in = new(fingerprint)
		r.out = new(fingerprint)
	}

	chunks, err := r.split(src)
	if err != nil {
		return nil, err
	}
	c.logf("split %d row(s) into %d chunk(s)", r.rows, len(chunks))
	// the input is fully consumed; let go of it before
	// the destination possibly replaces it
	closeInput()

	if err := r.sortChunks(chunks); err != nil {
		return nil, err
	}
	merged, err := r.mergeAll(chunks)
	if err != nil {
		return nil, err
	}

	dst := c.Output
	if dst == "" {
		dst = path
	}
	etag, err := r.finish(dst, header, merged, enc)
	if err != nil {
		return nil, err
	}
	c.logf("wrote %s: %d row(s), %d merge(s), etag %s",
		dst, r.rows, r.merges, etag)
	return &Result{
		Rows:   r.rows,
		Chunks: len(chunks),
		Merges: r.merges,
		Output: dst,
		ETag:   etag,
	}, nil
}

// openRows layers suffix decompression and character
// decoding under a row reader. The reader reuses its
// row buffer; Sort only ever streams from it. The
// returned closer is non-nil when path names a
// compressed file.
func openRows(f *os.File, path string, enc encoding.Encoding, sep xsv.Delim) (*xsv.Reader, io.Closer, error) {
	var src io.Reader = f
	var zc io.Closer
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(src)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		src, zc = gz, gz
	case strings.HasSuffix(path, ".zst"):
		zr, err := compr.Compression("zstd").Reader(src)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		src, zc = zr, zr
	}
	rd := &xsv.Reader{Separator: sep, Reuse: true}
	rd.Reset(xsv.DecodeReader(enc, src))
	return rd, zc, nil
}

// finish writes the destination: a temporary file
// beside dst receives the header and then every merged
// row re-encoded with the configured separator,
// quoting and encoding, and is renamed over dst only
// once everything has been flushed. A .gz or .zst
// suffix on dst compresses the destination, mirroring
// how such suffixes are read. merged == "" means no
// data rows survived the earlier phases (empty input),
// so only the header is written.
func (r *run) finish(dst string, header xsv.Row, merged string, enc encoding.Encoding) (string, error) {
	dir, base := filepath.Split(dst)
	if dir == "" {
		dir = "."
	}
	hash, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, base)
	if err != nil {
		return "", fmt.Errorf("finish: %w", err)
	}
	var sink io.Writer = io.MultiWriter(tmp, hash)
	var zw io.WriteCloser
	switch {
	case strings.HasSuffix(dst, ".gz"):
		zw = gzip.NewWriter(sink)
	case strings.HasSuffix(dst, ".zst"):
		zw = compr.Compression("zstd").Writer(sink)
	}
	if zw != nil {
		sink = zw
	}
	abort := func(err error) (string, error) {
		if zw != nil {
			zw.Close()
		}
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}

	ew := xsv.EncodeWriter(enc, sink)
	w := xsv.NewWriter(ew, r.conf.Separator, r.conf.Quoting)
	if header != nil {
		if err := w.Write(header); err != nil {
			return abort(fmt.Errorf("finish: writing header: %w", err))
		}
	}
	if merged != "" {
		if err := r.copyRows(w, merged); err != nil {
			return abort(err)
		}
	}
	if err := w.Flush(); err != nil {
		return abort(fmt.Errorf("finish: %w", err))
	}
	if err := ew.Close(); err != nil {
		return abort(fmt.Errorf("finish: %w", err))
	}
	if zw != nil {
		err := zw.Close()
		zw = nil
		if err != nil {
			return abort(fmt.Errorf("finish: %w", err))
		}
	}
	if r.out != nil && !r.in.equal(r.out) {
		return abort(fmt.Errorf("verify: input %d row(s) sum %#x, output %d row(s) sum %#x",
			r.in.rows, r.in.sum, r.out.rows, r.out.sum))
	}
	if err := tmp.Close(); err != nil {
		return abort(fmt.Errorf("finish: %w", err))
	}
	// carry over the permissions of a file we replace
	if fi, err := os.Stat(dst); err == nil {
		os.Chmod(tmp.Name(), fi.Mode().Perm())
	} else {
		os.Chmod(tmp.Name(), 0644)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finish: %w", err)
	}
	return "b2sum:" + base32.StdEncoding.EncodeToString(hash.Sum(nil)), nil
}

// copyRows streams the merged scratch file into the
// destination writer row by row.
func (r *run) copyRows(w *xsv.Writer, merged string) error {
	f, err := os.Open(merged)
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	defer f.Close()
	zr, err := r.codec.Reader(f)
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	defer zr.Close()
	rd := &xsv.Reader{Reuse: true}
	rd.Reset(zr)
	for {
		row, err := rd.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("finish: reading %s: %w", merged, err)
		}
		if r.out != nil {
			r.out.add(row)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("finish: %w", err)
		}
	}
}
