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
	"fmt"
	"math/bits"
	"strings"
)

// Serialize returns the flat byte form of b: one
// header byte, 16*endian + pad where endian is 1 for
// BigEndian and pad is the number of pad bits, followed
// by the bytes of b with the pad bits cleared.
func (b *BitArray) Serialize() []byte {
	out := make([]byte, 1, 1+bytesFor(b.nbits))
	out[0] = byte(b.PadBits())
	if b.endian == BigEndian {
		out[0] |= 0x10
	}
	return append(out, b.Bytes()...)
}

// Deserialize parses the flat byte form produced
// by Serialize. The result owns a copy of p.
func Deserialize(p []byte) (*BitArray, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidBuffer)
	}
	h := p[0]
	if h&^0x17 != 0 {
		return nil, fmt.Errorf("%w: invalid header byte 0x%02x", ErrInvalidBuffer, h)
	}
	pad := int(h & 7)
	if len(p) == 1 && pad != 0 {
		return nil, fmt.Errorf("%w: header 0x%02x for empty buffer", ErrInvalidBuffer, h)
	}
	e := LittleEndian
	if h&0x10 != 0 {
		e = BigEndian
	}
	b := FromBytes(p[1:], e)
	b.resize(b.nbits - pad)
	return b, nil
}

// valueIndex returns the logical index holding
// bit k (0 = least significant) of an n-bit integer.
func (b *BitArray) valueIndex(k int) int {
	if b.endian == BigEndian {
		return b.nbits - 1 - k
	}
	return k
}

// FromUint64 returns v as an n-bit unsigned integer.
// For BigEndian the most significant bit comes first;
// for LittleEndian the least significant bit comes first.
// If n is 0, the shortest length holding v (at least 1)
// is used. If v does not fit in n bits, FromUint64
// returns ErrOverflow.
func FromUint64(v uint64, n int, e Endian) (*BitArray, error) {
	if n < 0 {
		return nil, ErrInvalidArgument
	}
	if n == 0 {
		n = max(bits.Len64(v), 1)
	}
	if n < 64 && v>>uint(n) != 0 {
		return nil, fmt.Errorf("%w: %d does not fit in %d bits", ErrOverflow, v, n)
	}
	b := New(n, e)
	for k := 0; k < min(n, 64); k++ {
		if v&(1<<uint(k)) != 0 {
			b.setbit(b.valueIndex(k), true)
		}
	}
	return b, nil
}

// FromInt64 returns v as an n-bit two's complement
// integer (see FromUint64 for the bit order).
// n must be in [1, 64].
func FromInt64(v int64, n int, e Endian) (*BitArray, error) {
	if n < 1 || n > 64 {
		return nil, fmt.Errorf("%w: signed length %d", ErrInvalidArgument, n)
	}
	if n < 64 {
		lim := int64(1) << uint(n-1)
		if v < -lim || v >= lim {
			return nil, fmt.Errorf("%w: %d does not fit in %d signed bits", ErrOverflow, v, n)
		}
	}
	u := uint64(v)
	if n < 64 {
		u &= 1<<uint(n) - 1
	}
	return FromUint64(u, n, e)
}

// Uint64 interprets b as an unsigned integer
// (see FromUint64 for the bit order).
func (b *BitArray) Uint64() (uint64, error) {
	if b.nbits == 0 {
		return 0, fmt.Errorf("%w: empty bitarray has no value", ErrInvalidArgument)
	}
	if b.nbits > 64 {
		return 0, fmt.Errorf("%w: %d bits", ErrOverflow, b.nbits)
	}
	var v uint64
	for k := 0; k < b.nbits; k++ {
		if b.get(b.valueIndex(k)) {
			v |= 1 << uint(k)
		}
	}
	return v, nil
}

// Int64 interprets b as a two's complement integer.
func (b *BitArray) Int64() (int64, error) {
	u, err := b.Uint64()
	if err != nil {
		return 0, err
	}
	if s := uint(64 - b.nbits); s > 0 {
		return int64(u<<s) >> s, nil
	}
	return int64(u), nil
}

const hexdigits = "0123456789abcdef"

// nibble returns the 4 bits starting at i as a hex
// digit value. For BigEndian the first bit is the
// most significant; for LittleEndian the least.
func (b *BitArray) nibble(i int) byte {
	var v byte
	for k := 0; k < 4; k++ {
		if b.get(i + k) {
			if b.endian == BigEndian {
				v |= 8 >> k
			} else {
				v |= 1 << k
			}
		}
	}
	return v
}

// Hex returns the hexadecimal form of b, one digit per
// four bits (see nibble). b.Len() must be a multiple of 4.
func (b *BitArray) Hex() (string, error) {
	if b.nbits%4 != 0 {
		return "", fmt.Errorf("%w: length %d not a multiple of 4", ErrInvalidArgument, b.nbits)
	}
	var sb strings.Builder
	sb.Grow(b.nbits / 4)
	for i := 0; i < b.nbits; i += 4 {
		sb.WriteByte(hexdigits[b.nibble(i)])
	}
	return sb.String(), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// FromHex parses the output of Hex.
// Whitespace is ignored.
func FromHex(s string, e Endian) (*BitArray, error) {
	b := New(4*len(s), e)
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		v, ok := unhex(c)
		if !ok {
			return nil, fmt.Errorf("%w: non-hex character %q", ErrSyntax, c)
		}
		for k := 0; k < 4; k++ {
			var bit bool
			if e == BigEndian {
				bit = v&(8>>k) != 0
			} else {
				bit = v&(1<<k) != 0
			}
			b.setbit(n+k, bit)
		}
		n += 4
	}
	b.resize(n)
	return b, nil
}
