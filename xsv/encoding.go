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
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Encoding resolves a character-set name (an IANA name
// or one of its registered aliases, matched without
// regard to case) to the corresponding text encoding.
// The empty string and UTF-8 resolve to nil, meaning
// the stream is used as-is.
func Encoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// DecodeReader returns a reader that converts r from
// enc to UTF-8. A nil enc returns r unchanged.
func DecodeReader(enc encoding.Encoding, r io.Reader) io.Reader {
	if enc == nil {
		return r
	}
	return enc.NewDecoder().Reader(r)
}

// EncodeWriter returns a writer that converts UTF-8
// input to enc before handing it to w. The returned
// writer must be closed to flush any partial state;
// closing it does not close w.
func EncodeWriter(enc encoding.Encoding, w io.Writer) io.WriteCloser {
	if enc == nil {
		return nopCloser{w}
	}
	return transform.NewWriter(w, enc.NewEncoder())
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
