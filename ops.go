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

	"github.com/SnellerInc/bitarray/ints"
)

// SetRange sets the bits [start, stop) to v.
func (b *BitArray) SetRange(start, stop int, v bool) error {
	b.checkRange(start, stop)
	if err := b.writable(); err != nil {
		return err
	}
	b.fill(start, stop, v)
	return nil
}

// InvertRange inverts the bits [start, stop).
func (b *BitArray) InvertRange(start, stop int) error {
	b.checkRange(start, stop)
	if err := b.writable(); err != nil {
		return err
	}
	ints.FlipBits(b.buf, start, stop, b.endian.order())
	return nil
}

// Invert inverts every bit of b.
func (b *BitArray) Invert() error {
	return b.InvertRange(0, b.nbits)
}

// Reverse reverses the order of the bits of b in place.
func (b *BitArray) Reverse() error {
	if err := b.writable(); err != nil {
		return err
	}
	p := b.live()
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	reverseBytes(p)
	// the bits now end at the end of the last
	// byte; move them back to the front
	if pad := b.PadBits(); pad != 0 {
		copyBits(b, 0, b, pad, b.nbits)
	}
	return nil
}

// ShiftLeft moves every bit n positions towards
// index 0, filling the vacated positions with 0.
func (b *BitArray) ShiftLeft(n int) error {
	if n < 0 {
		return ErrInvalidArgument
	}
	if err := b.writable(); err != nil {
		return err
	}
	n = min(n, b.nbits)
	copyBits(b, 0, b, n, b.nbits-n)
	b.fill(b.nbits-n, b.nbits, false)
	return nil
}

// ShiftRight moves every bit n positions away from
// index 0, filling the vacated positions with 0.
func (b *BitArray) ShiftRight(n int) error {
	if n < 0 {
		return ErrInvalidArgument
	}
	if err := b.writable(); err != nil {
		return err
	}
	n = min(n, b.nbits)
	copyBits(b, n, b, 0, b.nbits-n)
	b.fill(0, n, false)
	return nil
}

// ByteReverse reverses the order of the bits within
// each byte in [start, stop) of the raw buffer. The
// endianness of b is unchanged; the logical bits are not.
// Negative indices count from the end of the buffer.
func (b *BitArray) ByteReverse(start, stop int) error {
	if err := b.writable(); err != nil {
		return err
	}
	p := b.live()
	start, stop = ints.Indices(start, stop, len(p))
	if start < stop {
		reverseBytes(p[start:stop])
	}
	return nil
}

type bitwiseOp func(x, y uint64) uint64

func (b *BitArray) bitwise(o *BitArray, op bitwiseOp) error {
	if b.nbits != o.nbits {
		return ErrLengthMismatch
	}
	if err := b.writable(); err != nil {
		return err
	}
	if o.endian != b.endian {
		o = o.ToEndian(b.endian)
	}
	x, y := b.live(), o.live()
	i := 0
	for ; i+8 <= len(x); i += 8 {
		v := op(binary.LittleEndian.Uint64(x[i:]), binary.LittleEndian.Uint64(y[i:]))
		binary.LittleEndian.PutUint64(x[i:], v)
	}
	for ; i < len(x); i++ {
		x[i] = byte(op(uint64(x[i]), uint64(y[i])))
	}
	return nil
}

// And sets b to b AND o.
func (b *BitArray) And(o *BitArray) error {
	return b.bitwise(o, func(x, y uint64) uint64 { return x & y })
}

// Or sets b to b OR o.
func (b *BitArray) Or(o *BitArray) error {
	return b.bitwise(o, func(x, y uint64) uint64 { return x | y })
}

// Xor sets b to b XOR o.
func (b *BitArray) Xor(o *BitArray) error {
	return b.bitwise(o, func(x, y uint64) uint64 { return x ^ y })
}

// Parity returns the parity (XOR) of all bits of b.
func (b *BitArray) Parity() bool {
	return b.count(0, b.nbits)&1 == 1
}
