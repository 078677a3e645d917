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
	"fmt"
	"math/bits"
	"runtime"

	"github.com/SnellerInc/bitarray/ints"

	"golang.org/x/sys/cpu"
)

// wideCount selects word-at-a-time population
// counts; without a hardware popcount the
// per-byte table is faster on amd64.
var wideCount = runtime.GOARCH != "amd64" || cpu.X86.HasPOPCNT

func countBytes(p []byte) int {
	n := 0
	if wideCount {
		for len(p) >= 8 {
			n += bits.OnesCount64(binary.LittleEndian.Uint64(p))
			p = p[8:]
		}
	}
	for _, c := range p {
		n += bits.OnesCount8(c)
	}
	return n
}

// count returns the number of set bits in [start, stop).
func (b *BitArray) count(start, stop int) int {
	n := 0
	for start < stop && start&7 != 0 {
		if b.get(start) {
			n++
		}
		start++
	}
	for stop > start && stop&7 != 0 {
		stop--
		if b.get(stop) {
			n++
		}
	}
	return n + countBytes(b.buf[start>>3:stop>>3])
}

// Count returns the number of bits equal to v.
func (b *BitArray) Count(v bool) int {
	n := b.count(0, b.nbits)
	if !v {
		n = b.nbits - n
	}
	return n
}

// CountRange returns the number of set bits at the
// positions start, start+step, start+2*step, ...
// Negative start and stop count from the end.
// For a positive step the positions lie in [start, stop);
// for a negative step they lie in (stop, start].
// A step of 0 is an error.
func (b *BitArray) CountRange(start, stop, step int) (int, error) {
	switch {
	case step == 0:
		return 0, fmt.Errorf("%w: zero step", ErrInvalidArgument)
	case step > 0:
		start, stop = ints.Indices(start, stop, b.nbits)
		if step == 1 {
			if start >= stop {
				return 0, nil
			}
			return b.count(start, stop), nil
		}
		n := 0
		for i := start; i < stop; i += step {
			if b.get(i) {
				n++
			}
		}
		return n, nil
	default:
		if start < 0 {
			start += b.nbits
		}
		if stop < 0 {
			stop += b.nbits
		}
		start = ints.Clamp(start, -1, b.nbits-1)
		stop = ints.Clamp(stop, -1, b.nbits-1)
		if step == -1 {
			if stop >= start {
				return 0, nil
			}
			return b.count(stop+1, start+1), nil
		}
		n := 0
		for i := start; i > stop; i += step {
			if b.get(i) {
				n++
			}
		}
		return n, nil
	}
}
