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

// Package ints implements generic helpers for
// manipulating bits packed into integer words.
package ints

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Order selects how a bit index maps onto
// the bits of a word.
type Order uint8

const (
	// LSB numbers the bits of each word starting
	// from the least significant bit.
	LSB Order = iota
	// MSB numbers the bits of each word starting
	// from the most significant bit.
	MSB
)

func (o Order) String() string {
	if o == MSB {
		return "msb"
	}
	return "lsb"
}

func bitsPer[T constraints.Integer](in []T) uintptr {
	return unsafe.Sizeof(in[0]) * 8
}

// Mask returns the single-bit mask selecting
// bit k (modulo the word size) of a word of type T.
func Mask[T, K constraints.Integer](k K, o Order) T {
	var zero T
	w := unsafe.Sizeof(zero) * 8
	s := uintptr(k) % w
	if o == MSB {
		s = w - 1 - s
	}
	return T(1) << s
}

// TestBit check if the k-th bit is set in range "in"
func TestBit[T, K constraints.Integer](in []T, k K, o Order) bool {
	return in[uintptr(k)/bitsPer(in)]&Mask[T](k, o) != 0
}

// SetBit sets the k-th bit in range "in"
func SetBit[T, K constraints.Integer](in []T, k K, o Order) {
	in[uintptr(k)/bitsPer(in)] |= Mask[T](k, o)
}

// ClearBit clears the k-th bit in range "in"
func ClearBit[T, K constraints.Integer](in []T, k K, o Order) {
	in[uintptr(k)/bitsPer(in)] &^= Mask[T](k, o)
}

// FlipBit inverts the k-th bit in range "in"
func FlipBit[T, K constraints.Integer](in []T, k K, o Order) {
	in[uintptr(k)/bitsPer(in)] ^= Mask[T](k, o)
}

// span computes the word indices and edge masks
// covering the bits [first, last). The caller
// guarantees first < last.
func span[T constraints.Integer](in []T, first, last uintptr, o Order) (fi, li uintptr, fm, lm T) {
	w := bitsPer(in)
	msk := w - 1
	ones := (uint64(1) << w) - 1
	fi = first / w
	li = (last - 1) / w
	if o == MSB {
		fm = T(ones >> (first & msk))
		lm = T(ones << ((last - 1) & msk ^ msk))
	} else {
		fm = T(ones << (first & msk))
		lm = T(ones >> ((last - 1) & msk ^ msk))
	}
	return
}

// SetBits sets the bits [first, last) in range "in"
func SetBits[T, K constraints.Integer](in []T, first, last K, o Order) {
	if first >= last {
		return
	}
	fi, li, fm, lm := span(in, uintptr(first), uintptr(last), o)
	if fi == li {
		in[fi] |= fm & lm
		return
	}
	in[fi] |= fm
	for i := fi + 1; i != li; i++ {
		in[i] = ^T(0)
	}
	in[li] |= lm
}

// ClearBits clears the bits [first, last) in range "in"
func ClearBits[T, K constraints.Integer](in []T, first, last K, o Order) {
	if first >= last {
		return
	}
	fi, li, fm, lm := span(in, uintptr(first), uintptr(last), o)
	if fi == li {
		in[fi] &^= fm & lm
		return
	}
	in[fi] &^= fm
	for i := fi + 1; i != li; i++ {
		in[i] = 0
	}
	in[li] &^= lm
}

// FlipBits inverts the bits [first, last) in range "in"
func FlipBits[T, K constraints.Integer](in []T, first, last K, o Order) {
	if first >= last {
		return
	}
	fi, li, fm, lm := span(in, uintptr(first), uintptr(last), o)
	if fi == li {
		in[fi] ^= fm & lm
		return
	}
	in[fi] ^= fm
	for i := fi + 1; i != li; i++ {
		in[i] = ^in[i]
	}
	in[li] ^= lm
}

// TailMask returns the mask selecting the first
// n%w bits of a word (all bits when n%w == 0).
func TailMask[T, K constraints.Integer](n K, o Order) T {
	var zero T
	w := unsafe.Sizeof(zero) * 8
	r := uintptr(n) % w
	if r == 0 {
		return ^T(0)
	}
	ones := (uint64(1) << r) - 1
	if o == MSB {
		return T(ones << (w - r))
	}
	return T(ones)
}
