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

// Package compr provides a unified interface wrapping
// third-party compression libraries.
package compr

import (
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Codec compresses and decompresses byte streams.
type Codec interface {
	// Name is the name of the compression algorithm.
	Name() string
	// Ext is the filename suffix conventionally given
	// to files holding streams in this encoding
	// (empty for the identity codec).
	Ext() string
	// Writer wraps w in a compressing writer.
	// The result must be closed to complete the
	// stream; closing it does not close w.
	Writer(w io.Writer) io.WriteCloser
	// Reader wraps r in a decompressing reader.
	Reader(r io.Reader) (io.ReadCloser, error)
}

// Compression selects a codec by name. The returned
// Codec reports the same Name as the one requested,
// except that "" selects "none". Unknown names return
// nil.
func Compression(name string) Codec {
	switch name {
	case "", "none":
		return noneCodec{}
	case "zstd":
		return zstdCodec{}
	case "s2":
		return s2Codec{}
	default:
		return nil
	}
}

type noneCodec struct{}

func (noneCodec) Name() string { return "none" }
func (noneCodec) Ext() string  { return "" }

func (noneCodec) Writer(w io.Writer) io.WriteCloser {
	return nopWriteCloser{w}
}

func (noneCodec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type zstdCodec struct{}

func (zstdCodec) Name() string { return "zstd" }
func (zstdCodec) Ext() string  { return ".zst" }

func (zstdCodec) Writer(w io.Writer) io.WriteCloser {
	enc, _ := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	return enc
}

func (zstdCodec) Reader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

type s2Codec struct{}

func (s2Codec) Name() string { return "s2" }
func (s2Codec) Ext() string  { return ".s2" }

func (s2Codec) Writer(w io.Writer) io.WriteCloser {
	return s2.NewWriter(w)
}

func (s2Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(r)), nil
}
