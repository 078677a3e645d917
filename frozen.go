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

package bitarray

import (
	"encoding/binary"
	"math/bits"

	"github.com/dchest/siphash"
)

// hash keys; arbitrary but fixed so that
// hashes are stable across processes
const (
	hashKey0 = 0x736e656c6c657262
	hashKey1 = 0x6974617272617931
)

// Frozen is an immutable BitArray. It exposes no
// mutating operations, its pad bits are always
// zero, and it can be hashed.
type Frozen struct {
	b BitArray
}

// Freeze returns a frozen copy of b.
func Freeze(b *BitArray) *Frozen {
	f := &Frozen{b: *b.Clone()}
	f.b.clearPad(f.b.live())
	f.b.readonly = true
	return f
}

// Len returns the number of bits in f.
func (f *Frozen) Len() int { return f.b.nbits }

// Endian returns the bit-endianness of f.
func (f *Frozen) Endian() Endian { return f.b.endian }

// Get returns bit i.
func (f *Frozen) Get(i int) bool { return f.b.Get(i) }

// Count returns the number of set bits.
func (f *Frozen) Count() int { return f.b.Count(true) }

// Bytes returns a copy of the bytes of f.
func (f *Frozen) Bytes() []byte { return f.b.Bytes() }

// String returns f as a string of '0' and '1'.
func (f *Frozen) String() string { return f.b.String() }

// BitArray returns a read-only BitArray over
// the memory of f. Every mutation of the result
// fails with ErrReadOnly.
func (f *Frozen) BitArray() *BitArray { return &f.b }

// Thaw returns a writable copy of f.
func (f *Frozen) Thaw() *BitArray { return f.b.Clone() }

// Equal returns whether f and o hold the same bits.
func (f *Frozen) Equal(o *Frozen) bool { return Equal(&f.b, &o.b) }

// Hash returns a hash of the logical bits of f.
// Frozen values that are Equal hash identically,
// whatever their endianness.
func (f *Frozen) Hash() uint64 {
	live := f.b.live()
	p := make([]byte, len(live)+8)
	copy(p, live)
	if f.b.endian == LittleEndian {
		// hash the big-endian form
		for i := range live {
			p[i] = bits.Reverse8(p[i])
		}
	}
	binary.LittleEndian.PutUint64(p[len(live):], uint64(f.b.nbits))
	return siphash.Hash(hashKey0, hashKey1, p)
}
