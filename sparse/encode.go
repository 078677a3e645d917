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

package sparse

import (
	"encoding/binary"
	"math/bits"

	"github.com/SnellerInc/bitarray"
	"github.com/SnellerInc/bitarray/ints"
)

// BlockStats counts the blocks of one type
// written by an Encoder.
type BlockStats struct {
	Blocks int // number of blocks
	Bytes  int // encoded bytes, headers included
}

// Stats accumulates per-type block statistics.
// Index 0 is raw blocks, 1..4 the sparse block
// types by index width.
type Stats [5]BlockStats

// Encoder encodes bitarrays.
// The zero value is ready to use.
type Encoder struct {
	// Logf, if non-nil, receives a summary
	// of every encoded bitarray.
	Logf func(f string, args ...any)
	// Stats accumulates over every call to Encode.
	Stats Stats
}

// Encode returns the sparse encoding of b.
func Encode(b *bitarray.BitArray) ([]byte, error) {
	var e Encoder
	return e.AppendEncode(nil, b)
}

// Encode returns the sparse encoding of b.
func (e *Encoder) Encode(b *bitarray.BitArray) ([]byte, error) {
	return e.AppendEncode(nil, b)
}

// AppendEncode appends the sparse encoding of b to dst.
// b is exported for the duration of the call.
func (e *Encoder) AppendEncode(dst []byte, b *bitarray.BitArray) ([]byte, error) {
	start := len(dst)
	set := 0
	err := b.WithExport(func(p []byte) error {
		w := writer{
			dst:   appendHeader(dst, b),
			src:   p,
			stats: &e.Stats,
		}
		if len(p) > 0 {
			w.last = p[len(p)-1]
			if b.PadBits() != 0 {
				// never leak pad bits into raw blocks
				w.last &= ints.TailMask[byte](b.Len(), order(b.Endian()))
			}
		}
		w.prepare(b)
		set = w.rts[len(w.rts)-1]
		for off := 0; off < len(p); {
			off += w.block(b, off)
		}
		dst = append(w.dst, stop)
		return nil
	})
	if err != nil {
		return dst[:start], err
	}
	if e.Logf != nil {
		e.Logf("sparse: encoded %d bits (%d set) into %d bytes", b.Len(), set, len(dst)-start)
	}
	return dst, nil
}

func order(e bitarray.Endian) ints.Order {
	if e == bitarray.BigEndian {
		return ints.MSB
	}
	return ints.LSB
}

func appendHeader(dst []byte, b *bitarray.BitArray) []byte {
	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(b.Len()))
	nlen := (bits.Len64(uint64(b.Len())) + 7) / 8
	head := byte(nlen)
	if b.Endian() == bitarray.BigEndian {
		head |= 0x10
	}
	dst = append(dst, head)
	return append(dst, length[:nlen]...)
}

type writer struct {
	dst   []byte
	src   []byte // exported bytes of the bitarray
	last  byte   // src[len(src)-1] with pad bits cleared
	stats *Stats
	// rts[j] is the number of set bits in the
	// first j segments of src
	rts []int
}

func (w *writer) prepare(b *bitarray.BitArray) {
	nseg := ints.ChunkCount(len(w.src), segment)
	w.rts = make([]int, nseg+1)
	for j := 0; j < nseg; j++ {
		lo := j * segment * 8
		n, _ := b.CountRange(lo, min(lo+segment*8, b.Len()), 1)
		w.rts[j+1] = w.rts[j] + n
	}
}

// count returns the number of set bits in
// the n bytes starting at off; off is
// a multiple of the segment size.
func (w *writer) count(off, n int) int {
	lo := off / segment
	hi := ints.ChunkCount(min(off+n, len(w.src)), segment)
	return w.rts[hi] - w.rts[lo]
}

func (w *writer) byteAt(i int) byte {
	if i == len(w.src)-1 {
		return w.last
	}
	return w.src[i]
}

// sparseSegment reports whether the segment at off
// is cheaper to encode with indices than raw.
func (w *writer) sparseSegment(off int) bool {
	s := min(segment, len(w.src)-off)
	c := w.count(off, s)
	return c <= typeOneMax && 1+c < s
}

// block writes the next block and
// returns the number of bytes it covers.
func (w *writer) block(b *bitarray.BitArray, off int) int {
	rem := len(w.src) - off
	if !w.sparseSegment(off) {
		n := min(segment, rem)
		for n < rawMax && off+n < len(w.src) && !w.sparseSegment(off+n) {
			n += min(segment, len(w.src)-off-n)
		}
		w.raw(off, n)
		return n
	}
	k := 1
	size := min(segment, rem)
	for next := 2; next <= 4; next++ {
		s := min(blockBytes(next), rem)
		if s == size {
			break
		}
		c := w.count(off, s)
		if c > wideMax {
			break
		}
		// k-byte indices cost one byte more each than the
		// narrower block, which instead pays a header for
		// every sub-block it would need
		sub := ints.ChunkCount(s, blockBytes(next-1))
		if c+2 >= 2*sub {
			break
		}
		k, size = next, s
	}
	w.sparse(b, off, k, size)
	return size
}

// raw writes n bytes at off as raw blocks.
func (w *writer) raw(off, n int) {
	for n > 0 {
		m := n
		if m > rawSmall {
			m = min(m-m%segment, rawMax)
		}
		w.dst = append(w.dst, rawHead(m))
		for i := off; i < off+m; i++ {
			w.dst = append(w.dst, w.byteAt(i))
		}
		w.stats[0].Blocks++
		w.stats[0].Bytes += 1 + m
		off += m
		n -= m
	}
}

// sparse writes one block of set-bit indices.
func (w *writer) sparse(b *bitarray.BitArray, off, k, size int) {
	count := w.count(off, size)
	start := len(w.dst)
	if k == 1 {
		w.dst = append(w.dst, byte(typeOne+count))
	} else {
		w.dst = append(w.dst, byte(typeWide+k), byte(count))
	}
	base := off * 8
	end := min((off+size)*8, b.Len())
	var idx [4]byte
	for i := b.Index(true, base, end, false); i >= 0; i = b.Index(true, i+1, end, false) {
		binary.LittleEndian.PutUint32(idx[:], uint32(i-base))
		w.dst = append(w.dst, idx[:k]...)
	}
	w.stats[k].Blocks++
	w.stats[k].Bytes += len(w.dst) - start
}
