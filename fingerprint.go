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
	"encoding/binary"

	"github.com/SnellerInc/xsort/xsv"
	"github.com/dchest/siphash"
)

const (
	fpKey0 = uint64(0x5d1ec810)
	fpKey1 = uint64(0xfebed702)
)

// fingerprint accumulates an order-independent digest
// of a multiset of rows: each row is hashed on its own
// and the hashes are summed, so any permutation of the
// same rows lands on the same (sum, rows) pair.
type fingerprint struct {
	rows int64
	sum  uint64
	buf  []byte
}

func (f *fingerprint) add(row xsv.Row) {
	f.buf = f.buf[:0]
	var n [binary.MaxVarintLen64]byte
	for i := range row {
		// length-prefix each field so that
		// {"ab","c"} and {"a","bc"} differ
		l := binary.PutUvarint(n[:], uint64(len(row[i])))
		f.buf = append(f.buf, n[:l]...)
		f.buf = append(f.buf, row[i]...)
	}
	f.sum += siphash.Hash(fpKey0, fpKey1, f.buf)
	f.rows++
}

func (f *fingerprint) equal(other *fingerprint) bool {
	return f.rows == other.rows && f.sum == other.sum
}
