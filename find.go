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

// findBit returns the lowest index in [start, stop)
// holding v, or -1. Whole words that cannot
// contain v are skipped.
func (b *BitArray) findBit(v bool, start, stop int) int {
	skip := uint64(0)
	if !v {
		skip = ^uint64(0)
	}
	i := start
	for i < stop && i&7 != 0 {
		if b.get(i) == v {
			return i
		}
		i++
	}
	for i+64 <= stop && binary.LittleEndian.Uint64(b.buf[i>>3:]) == skip {
		i += 64
	}
	for i+8 <= stop && b.buf[i>>3] == byte(skip) {
		i += 8
	}
	for ; i < stop; i++ {
		if b.get(i) == v {
			return i
		}
	}
	return -1
}

// findBitRight is like findBit but returns
// the highest matching index.
func (b *BitArray) findBitRight(v bool, start, stop int) int {
	skip := byte(0)
	if !v {
		skip = 0xff
	}
	i := stop
	for i > start && i&7 != 0 {
		i--
		if b.get(i) == v {
			return i
		}
	}
	for i-8 >= start && b.buf[(i>>3)-1] == skip {
		i -= 8
	}
	for i > start {
		i--
		if b.get(i) == v {
			return i
		}
	}
	return -1
}

// Index returns the lowest (or, if right is set, the
// highest) index in [start, stop) holding v, or -1.
// Negative start and stop count from the end.
func (b *BitArray) Index(v bool, start, stop int, right bool) int {
	start, stop = ints.Indices(start, stop, b.nbits)
	if start >= stop {
		return -1
	}
	if right {
		return b.findBitRight(v, start, stop)
	}
	return b.findBit(v, start, stop)
}

// matchAt returns whether pattern occurs at position i.
func (b *BitArray) matchAt(pattern *BitArray, i int) bool {
	n := pattern.nbits
	for k := 0; k < n; k += chunk {
		w := min(chunk, n-k)
		if loadBits(b.buf, b.endian, i+k, w) != loadBits(pattern.buf, pattern.endian, k, w) {
			return false
		}
	}
	return true
}

// Find returns the lowest (or, if right is set, the
// highest) position p such that pattern occurs at p
// and lies within [start, stop), or -1 if there is
// none. An empty pattern matches at start (or stop).
func (b *BitArray) Find(pattern *BitArray, start, stop int, right bool) int {
	start, stop = ints.Indices(start, stop, b.nbits)
	m := pattern.nbits
	if stop-start < m {
		return -1
	}
	if m == 0 {
		if right {
			return stop
		}
		return start
	}
	first := pattern.get(0)
	last := stop - m
	if right {
		for p := last; p >= start; p-- {
			p = b.findBitRight(first, start, p+1)
			if p < 0 {
				return -1
			}
			if b.matchAt(pattern, p) {
				return p
			}
		}
		return -1
	}
	for p := start; p <= last; p++ {
		p = b.findBit(first, p, last+1)
		if p < 0 {
			return -1
		}
		if b.matchAt(pattern, p) {
			return p
		}
	}
	return -1
}

// FindAll returns every position at which pattern
// occurs within [start, stop), in increasing order.
// Occurrences may overlap. An empty pattern
// yields no positions.
func (b *BitArray) FindAll(pattern *BitArray, start, stop int) []int {
	var out []int
	if pattern.nbits == 0 {
		return out
	}
	start, stop = ints.Indices(start, stop, b.nbits)
	for start < stop {
		p := b.Find(pattern, start, stop, false)
		if p < 0 {
			break
		}
		out = append(out, p)
		start = p + 1
	}
	return out
}

// Runs returns the maximal runs of consecutive
// bits equal to v, in increasing order.
func (b *BitArray) Runs(v bool) ints.Intervals {
	var out ints.Intervals
	for i := 0; i < b.nbits; {
		s := b.findBit(v, i, b.nbits)
		if s < 0 {
			break
		}
		e := b.findBit(!v, s, b.nbits)
		if e < 0 {
			e = b.nbits
		}
		out = append(out, ints.Interval{Start: s, End: e})
		i = e
	}
	return out
}
