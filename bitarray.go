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

// Package bitarray implements a bit-addressable
// array backed by a byte buffer.
//
// Each BitArray has a bit-endianness that decides
// how a logical bit index maps onto the bits of the
// underlying bytes: bit i lives in byte i/8, at bit
// 7-i%8 for BigEndian and at bit i%8 for LittleEndian.
// Logical operations (Equal, Count, Find, ...) never
// depend on the endianness; the raw bytes do.
//
// A BitArray either owns its memory exclusively or
// is a shared view into memory owned by an Exporter
// (see Import). While any export of a buffer is live,
// operations that could relocate its memory fail with
// ErrBufferBusy. Bit writes are always allowed on
// writable buffers, since they never move memory.
//
// A BitArray is not safe for concurrent use;
// callers must serialize mutation externally.
package bitarray

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/SnellerInc/bitarray/ints"
)

// Endian is a bit-endianness.
type Endian uint8

const (
	// BigEndian stores the lowest index of
	// each byte in its most significant bit.
	BigEndian Endian = iota
	// LittleEndian stores the lowest index of
	// each byte in its least significant bit.
	LittleEndian
)

func (e Endian) String() string {
	switch e {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	default:
		return fmt.Sprintf("Endian(%d)", uint8(e))
	}
}

// ParseEndian parses "big" or "little".
func ParseEndian(s string) (Endian, error) {
	switch strings.ToLower(s) {
	case "big":
		return BigEndian, nil
	case "little":
		return LittleEndian, nil
	}
	return 0, fmt.Errorf("%w: unknown endianness %q", ErrSyntax, s)
}

func (e Endian) order() ints.Order {
	if e == BigEndian {
		return ints.MSB
	}
	return ints.LSB
}

// Ownership describes who owns the memory
// behind a BitArray.
type Ownership uint8

const (
	// Exclusive memory is allocated by and
	// owned solely by the BitArray.
	Exclusive Ownership = iota
	// Shared memory belongs to an Exporter and
	// is only borrowed by the BitArray.
	Shared
)

func (o Ownership) String() string {
	if o == Shared {
		return "shared"
	}
	return "exclusive"
}

// BitArray is a sequence of bits.
type BitArray struct {
	// len(buf) is the allocated size; only
	// the first bytesFor(nbits) bytes are live
	buf      []byte
	nbits    int
	endian   Endian
	readonly bool
	own      Ownership
	owner    Exporter // non-nil iff own == Shared
	exports  int
	closed   bool
}

func bytesFor(nbits int) int {
	return ints.ChunkCount(nbits, 8)
}

// New returns a zeroed BitArray of n bits.
func New(n int, e Endian) *BitArray {
	if n < 0 {
		panic("bitarray.New: negative length")
	}
	b := &BitArray{endian: e}
	b.resize(n)
	return b
}

// Zeros is an alias for New.
func Zeros(n int, e Endian) *BitArray { return New(n, e) }

// Ones returns a BitArray of n set bits.
func Ones(n int, e Endian) *BitArray {
	b := New(n, e)
	b.fill(0, n, true)
	return b
}

// FromBytes returns a BitArray of 8*len(p) bits
// holding a copy of p.
func FromBytes(p []byte, e Endian) *BitArray {
	b := New(len(p)*8, e)
	copy(b.buf, p)
	return b
}

// FromBools returns a BitArray holding v.
func FromBools(v []bool, e Endian) *BitArray {
	b := New(len(v), e)
	for i := range v {
		if v[i] {
			b.setbit(i, true)
		}
	}
	return b
}

// FromString parses a string of '0' and '1'
// characters. Whitespace and '_' are ignored.
func FromString(s string, e Endian) (*BitArray, error) {
	b := New(0, e)
	b.resize(len(s))
	n := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '0', '1':
			b.setbit(n, c == '1')
			n++
		case ' ', '\t', '\n', '\r', '\v', '\f', '_':
		default:
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, c, i)
		}
	}
	b.resize(n)
	return b, nil
}

// MustString is like FromString but panics on error.
func MustString(s string, e Endian) *BitArray {
	b, err := FromString(s, e)
	if err != nil {
		panic(err)
	}
	return b
}

// Len returns the number of bits in b.
func (b *BitArray) Len() int { return b.nbits }

// Endian returns the bit-endianness of b.
func (b *BitArray) Endian() Endian { return b.endian }

// ReadOnly returns whether b rejects mutation.
func (b *BitArray) ReadOnly() bool { return b.readonly }

// Ownership returns whether b owns its memory.
func (b *BitArray) Ownership() Ownership { return b.own }

// Exports returns the number of live exports of b.
func (b *BitArray) Exports() int { return b.exports }

// Cap returns the number of bytes allocated for b.
func (b *BitArray) Cap() int { return len(b.buf) }

// NBytes returns the number of bytes needed
// to hold b.Len() bits.
func (b *BitArray) NBytes() int { return bytesFor(b.nbits) }

// PadBits returns the number of unused bits
// in the last byte of b.
func (b *BitArray) PadBits() int {
	return 8*bytesFor(b.nbits) - b.nbits
}

func (b *BitArray) live() []byte {
	return b.buf[:bytesFor(b.nbits)]
}

func (b *BitArray) check(i int) {
	if uint(i) >= uint(b.nbits) {
		panic(fmt.Sprintf("bitarray: index %d out of range [0:%d]", i, b.nbits))
	}
}

func (b *BitArray) checkRange(start, stop int) {
	if start < 0 || stop > b.nbits || start > stop {
		panic(fmt.Sprintf("bitarray: range [%d:%d] out of range [0:%d]", start, stop, b.nbits))
	}
}

func (b *BitArray) get(i int) bool {
	return ints.TestBit(b.buf, i, b.endian.order())
}

func (b *BitArray) setbit(i int, v bool) {
	if v {
		ints.SetBit(b.buf, i, b.endian.order())
	} else {
		ints.ClearBit(b.buf, i, b.endian.order())
	}
}

func (b *BitArray) fill(start, stop int, v bool) {
	if v {
		ints.SetBits(b.buf, start, stop, b.endian.order())
	} else {
		ints.ClearBits(b.buf, start, stop, b.endian.order())
	}
}

// Get returns bit i. Get panics if i is out of range.
func (b *BitArray) Get(i int) bool {
	b.check(i)
	return b.get(i)
}

// Bit returns bit i as 0 or 1.
func (b *BitArray) Bit(i int) int {
	if b.Get(i) {
		return 1
	}
	return 0
}

func (b *BitArray) writable() error {
	if b.readonly {
		return ErrReadOnly
	}
	return nil
}

// Set sets bit i to v. Set panics if i
// is out of range.
func (b *BitArray) Set(i int, v bool) error {
	b.check(i)
	if err := b.writable(); err != nil {
		return err
	}
	b.setbit(i, v)
	return nil
}

// Bytes returns a copy of the bytes holding b,
// with the pad bits of the last byte cleared.
func (b *BitArray) Bytes() []byte {
	out := make([]byte, bytesFor(b.nbits))
	copy(out, b.buf)
	b.clearPad(out)
	return out
}

func (b *BitArray) clearPad(p []byte) {
	if len(p) > 0 && b.nbits%8 != 0 {
		p[len(p)-1] &= ints.TailMask[byte](b.nbits, b.endian.order())
	}
}

// String returns b as a string of '0' and '1'.
func (b *BitArray) String() string {
	var sb strings.Builder
	sb.Grow(b.nbits)
	for i := 0; i < b.nbits; i++ {
		if b.get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Bools returns the bits of b.
func (b *BitArray) Bools() []bool {
	out := make([]bool, b.nbits)
	for i := range out {
		out[i] = b.get(i)
	}
	return out
}

// Clone returns a writable copy of b
// that exclusively owns its memory.
func (b *BitArray) Clone() *BitArray {
	c := New(b.nbits, b.endian)
	copy(c.buf, b.live())
	return c
}

// Slice returns a copy of the bits [start, stop).
func (b *BitArray) Slice(start, stop int) *BitArray {
	b.checkRange(start, stop)
	c := New(stop-start, b.endian)
	copyBits(c, 0, b, start, stop-start)
	return c
}

// ToEndian returns a copy of b with the same
// logical bits stored with endianness e.
// The result never aliases b.
func (b *BitArray) ToEndian(e Endian) *BitArray {
	c := b.Clone()
	if e != b.endian {
		reverseBytes(c.live())
		c.endian = e
	}
	return c
}

func reverseBytes(p []byte) {
	for i := range p {
		p[i] = bits.Reverse8(p[i])
	}
}

// Equal returns whether a and b hold the same
// sequence of bits, regardless of endianness.
func Equal(a, b *BitArray) bool {
	if a.nbits != b.nbits {
		return false
	}
	full := a.nbits / 8
	x, y := a.buf[:full], b.buf[:full]
	if a.endian == b.endian {
		if string(x) != string(y) {
			return false
		}
	} else {
		for i := range x {
			if x[i] != bits.Reverse8(y[i]) {
				return false
			}
		}
	}
	for i := full * 8; i < a.nbits; i++ {
		if a.get(i) != b.get(i) {
			return false
		}
	}
	return true
}

// Equal returns whether b and o hold the
// same sequence of bits.
func (b *BitArray) Equal(o *BitArray) bool { return Equal(b, o) }

// RawEqual returns whether a and b have the same
// length, endianness, and raw bytes, including
// the pad bits of the last byte.
func RawEqual(a, b *BitArray) bool {
	return a.nbits == b.nbits && a.endian == b.endian &&
		string(a.live()) == string(b.live())
}
