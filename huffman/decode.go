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

package huffman

import (
	"fmt"
	"io"

	"github.com/SnellerInc/bitarray"
)

// Decoder yields the symbols encoded in a bit array
// one at a time.
type Decoder[S any] struct {
	src     *bitarray.BitArray
	pos     int
	count   []int
	symbols []S
}

// Check validates a count/symbol table pair.
// The code described by count may be incomplete,
// but it must not be over-subscribed.
func Check[S any](count []int, symbols []S) error {
	if len(count) == 0 {
		return fmt.Errorf("%w: empty count table", ErrInvalidCode)
	}
	if len(count) > MaxCodeLength+1 {
		return fmt.Errorf("%w: code length %d exceeds %d", ErrInvalidCode, len(count)-1, MaxCodeLength)
	}
	if count[0] != 0 {
		return fmt.Errorf("%w: %d codes of length zero", ErrInvalidCode, count[0])
	}
	total := 0
	left := 1
	for l := 1; l < len(count); l++ {
		if count[l] < 0 {
			return fmt.Errorf("%w: negative count for length %d", ErrInvalidCode, l)
		}
		left = left<<1 - count[l]
		if left < 0 {
			return fmt.Errorf("%w: too many codes of length %d", ErrInvalidCode, l)
		}
		// past this no table matching symbols can over-subscribe
		left = min(left, len(symbols)+1)
		total += count[l]
	}
	if total != len(symbols) {
		return fmt.Errorf("%w: count table describes %d symbols, have %d", ErrInvalidCode, total, len(symbols))
	}
	return nil
}

// NewDecoder returns a Decoder over src
// after validating the tables.
func NewDecoder[S any](src *bitarray.BitArray, count []int, symbols []S) (*Decoder[S], error) {
	if err := Check(count, symbols); err != nil {
		return nil, err
	}
	return &Decoder[S]{src: src, count: count, symbols: symbols}, nil
}

// Pos returns the index of the next bit to be read.
func (d *Decoder[S]) Pos() int { return d.pos }

// Next returns the next symbol.
// It returns io.EOF once the input is exhausted
// at a code boundary, bitarray.ErrUnderflow if the
// input ends inside a code, and ErrInvalidCode if
// the bits match no code. After an error the decoder
// does not advance.
func (d *Decoder[S]) Next() (S, error) {
	var zero S
	n := d.src.Len()
	if d.pos >= n {
		return zero, io.EOF
	}
	code, first, index := 0, 0, 0
	pos := d.pos
	for l := 1; l < len(d.count); l++ {
		if pos >= n {
			return zero, bitarray.ErrUnderflow
		}
		if d.src.Get(pos) {
			code |= 1
		}
		pos++
		c := d.count[l]
		if code-c < first {
			d.pos = pos
			return d.symbols[index+code-first], nil
		}
		index += c
		first = (first + c) << 1
		code <<= 1
	}
	return zero, fmt.Errorf("%w at bit %d", ErrInvalidCode, d.pos)
}

// Decode decodes all of src.
func Decode[S any](src *bitarray.BitArray, count []int, symbols []S) ([]S, error) {
	d, err := NewDecoder(src, count, symbols)
	if err != nil {
		return nil, err
	}
	var out []S
	for {
		s, err := d.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}
