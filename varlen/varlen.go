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

// Package varlen implements a self-terminating
// byte encoding for bitarrays of any length.
//
// The first byte carries a continuation flag in
// bit 7, the number of pad bits (0 to 6) in bits
// 6..4 and the first 4 bits of the array in bits
// 3..0. Every following byte carries a continuation
// flag and the next 7 bits. Bits are stored most
// significant first within each group, and the pad
// bits are the trailing zero bits of the last group.
// The last byte is the only one with bit 7 clear.
package varlen

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/SnellerInc/bitarray"
)

// ErrInvalidStream is returned when the pad count
// of an encoding is impossible for its length.
var ErrInvalidStream = errors.New("varlen: invalid stream")

const (
	more     = 0x80
	headBits = 4
	tailBits = 7
)

// Size returns the number of bytes in
// the encoding of an n-bit array.
func Size(n int) int {
	return (n + 3 + tailBits - 1) / tailBits
}

// Encode returns the encoding of b.
func Encode(b *bitarray.BitArray) []byte {
	return AppendEncode(nil, b)
}

// AppendEncode appends the encoding of b to dst.
func AppendEncode(dst []byte, b *bitarray.BitArray) []byte {
	n := b.Len()
	m := Size(n)
	pad := headBits + tailBits*(m-1) - n
	// group returns width bits of b starting
	// at bit i, zero-filled past the end
	group := func(i, width int) byte {
		var c byte
		for k := 0; k < width; k++ {
			c <<= 1
			if i+k < n && b.Get(i+k) {
				c |= 1
			}
		}
		return c
	}
	c := byte(pad<<headBits) | group(0, headBits)
	for i := headBits; i < n; i += tailBits {
		dst = append(dst, c|more)
		c = group(i, tailBits)
	}
	return append(dst, c)
}

// Decoder decodes varlen streams.
// The zero value is ready to use.
type Decoder struct {
	// MaxBits, if positive, bounds the length
	// of a decoded array.
	MaxBits int
}

// Decode reads one encoded array from r and returns
// it with endianness e. Decode reads r one byte at a
// time and stops at the terminating byte, so the rest
// of r is left for the caller.
func Decode(r io.ByteReader, e bitarray.Endian) (*bitarray.BitArray, error) {
	var d Decoder
	return d.Decode(r, e)
}

// DecodeBytes decodes the array at the start of p
// and returns the number of bytes it occupied.
func DecodeBytes(p []byte, e bitarray.Endian) (*bitarray.BitArray, int, error) {
	rd := bytes.NewReader(p)
	b, err := Decode(rd, e)
	return b, len(p) - rd.Len(), err
}

func readByte(r io.ByteReader, nbytes int) (byte, error) {
	c, err := r.ReadByte()
	if err == io.EOF {
		return 0, fmt.Errorf("varlen: stream ends after %d bytes: %w", nbytes, bitarray.ErrUnderflow)
	}
	return c, err
}

// Decode reads one encoded array from r.
func (d *Decoder) Decode(r io.ByteReader, e bitarray.Endian) (*bitarray.BitArray, error) {
	c, err := readByte(r, 0)
	if err != nil {
		return nil, err
	}
	pad := int(c>>headBits) & 7
	b := bitarray.New(0, e)
	if err := b.AppendUint(uint64(c&0x0f), headBits); err != nil {
		return nil, err
	}
	for m := 1; c&more != 0; m++ {
		if d.MaxBits > 0 && b.Len()-tailBits > d.MaxBits {
			return nil, fmt.Errorf("%w: more than %d bits", ErrInvalidStream, d.MaxBits)
		}
		c, err = readByte(r, m)
		if err != nil {
			return nil, err
		}
		if err := b.AppendUint(uint64(c&^more), tailBits); err != nil {
			return nil, err
		}
	}
	if pad > tailBits-1 || (b.Len() == headBits && pad > headBits) {
		return nil, fmt.Errorf("%w: %d pad bits in a %d-bit encoding", ErrInvalidStream, pad, b.Len())
	}
	if err := b.Resize(b.Len() - pad); err != nil {
		return nil, err
	}
	if d.MaxBits > 0 && b.Len() > d.MaxBits {
		return nil, fmt.Errorf("%w: %d bits exceeds limit %d", ErrInvalidStream, b.Len(), d.MaxBits)
	}
	return b, nil
}
