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
	"unsafe"
)

// chunk is the largest number of bits moved by
// one load/store pair; a chunk at any bit offset
// fits in one 64-bit word.
const chunk = 56

// loadBits returns the n <= chunk bits of buf
// starting at bit off, with bit off in the least
// significant position regardless of e.
func loadBits(buf []byte, e Endian, off, n int) uint64 {
	i := off >> 3
	s := uint(off & 7)
	var x uint64
	var p []byte
	if i+8 <= len(buf) {
		p = buf[i : i+8]
	} else {
		var tmp [8]byte
		copy(tmp[:], buf[i:])
		p = tmp[:]
	}
	if e == LittleEndian {
		x = binary.LittleEndian.Uint64(p) >> s
	} else {
		x = bits.Reverse64(binary.BigEndian.Uint64(p) << s)
	}
	return x & (1<<uint(n) - 1)
}

// storeBits writes the low n <= chunk bits of v
// into buf at bit offset off (see loadBits).
func storeBits(buf []byte, e Endian, off, n int, v uint64) {
	i := off >> 3
	s := uint(off & 7)
	var tmp [8]byte
	p := tmp[:]
	direct := i+8 <= len(buf)
	if direct {
		p = buf[i : i+8]
	} else {
		copy(tmp[:], buf[i:])
	}
	mask := uint64(1)<<uint(n) - 1
	if e == LittleEndian {
		x := binary.LittleEndian.Uint64(p)
		x = x&^(mask<<s) | (v&mask)<<s
		binary.LittleEndian.PutUint64(p, x)
	} else {
		m := bits.Reverse64(mask) >> s
		x := binary.BigEndian.Uint64(p)
		x = x&^m | (bits.Reverse64(v)>>s)&m
		binary.BigEndian.PutUint64(p, x)
	}
	if !direct {
		copy(buf[i:], tmp[:])
	}
}

// overlaps returns whether a and b share memory.
func overlaps(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	a0 := uintptr(unsafe.Pointer(&a[0]))
	a1 := a0 + uintptr(len(a))
	b0 := uintptr(unsafe.Pointer(&b[0]))
	b1 := b0 + uintptr(len(b))
	return a0 < b1 && b0 < a1
}

// copyBits copies n bits from src[soff:] to
// dst[doff:]. The ranges must be in bounds.
// Overlapping memory is handled, including
// distinct BitArrays viewing the same region.
func copyBits(dst *BitArray, doff int, src *BitArray, soff, n int) {
	if n <= 0 {
		return
	}
	dmem := dst.buf[doff>>3 : bytesFor(doff+n)]
	smem := src.buf[soff>>3 : bytesFor(soff+n)]
	if overlaps(dmem, smem) {
		if dst != src {
			// views of the same memory may disagree on
			// base offset and endianness; go through a
			// private copy
			tmp := New(n, src.endian)
			copyBits(tmp, 0, src, soff, n)
			src, soff = tmp, 0
		} else if doff == soff {
			return
		} else if doff > soff {
			copyBackward(dst, doff, src, soff, n)
			return
		}
	}
	if dst.endian == src.endian && doff&7 == 0 && soff&7 == 0 {
		nb := n >> 3
		r := n & 7
		var tail uint64
		if r != 0 {
			tail = loadBits(src.buf, src.endian, soff+nb*8, r)
		}
		copy(dst.buf[doff>>3:doff>>3+nb], src.buf[soff>>3:soff>>3+nb])
		if r != 0 {
			storeBits(dst.buf, dst.endian, doff+nb*8, r, tail)
		}
		return
	}
	for k := 0; k < n; k += chunk {
		w := min(chunk, n-k)
		storeBits(dst.buf, dst.endian, doff+k, w, loadBits(src.buf, src.endian, soff+k, w))
	}
}

// copyBackward copies from the end so that an
// overlapping source ahead of the destination
// is read before it is overwritten.
func copyBackward(dst *BitArray, doff int, src *BitArray, soff, n int) {
	for k := n; k > 0; {
		w := min(chunk, k)
		k -= w
		storeBits(dst.buf, dst.endian, doff+k, w, loadBits(src.buf, src.endian, soff+k, w))
	}
}

// CopyBits copies n bits from src starting at soff
// into dst starting at doff. The source and destination
// may overlap, and may be different views of the same
// memory. CopyBits panics if either range is out of bounds.
func CopyBits(dst *BitArray, doff int, src *BitArray, soff, n int) error {
	if n < 0 {
		return ErrInvalidArgument
	}
	dst.checkRange(doff, doff+n)
	src.checkRange(soff, soff+n)
	if err := dst.writable(); err != nil {
		return err
	}
	copyBits(dst, doff, src, soff, n)
	return nil
}
