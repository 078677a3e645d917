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

// resize sets the length of b to nbits,
// reallocating according to the growth policy:
// the allocation grows geometrically and is only
// shrunk once fewer than half of it would be used.
// Bits past the old length are unspecified.
func (b *BitArray) resize(nbits int) {
	need := bytesFor(nbits)
	alloc := len(b.buf)
	if alloc >= need && need >= alloc>>1 {
		b.nbits = nbits
		return
	}
	if need == 0 {
		b.buf = nil
		b.nbits = 0
		return
	}
	cur := bytesFor(b.nbits)
	extra := 7
	if cur < 8 {
		extra = 3
	}
	newalloc := (need + need>>4 + extra) &^ 3
	if need-cur > newalloc-need {
		// large jump: allocate exactly what is needed
		newalloc = (need + 3) &^ 3
	}
	buf := make([]byte, newalloc)
	copy(buf, b.buf[:min(cur, need)])
	b.buf = buf
	b.nbits = nbits
}

// checkStructural returns an error if b may
// not change its length or memory layout.
func (b *BitArray) checkStructural() error {
	if b.readonly {
		return ErrReadOnly
	}
	if b.own == Shared || b.exports > 0 {
		return ErrBufferBusy
	}
	return nil
}

// Resize sets the length of b to n bits.
// When growing, the new bits are unspecified;
// callers that need zeros must clear them.
// Resize fails with ErrBufferBusy while b is
// exported or when b is a shared view.
func (b *BitArray) Resize(n int) error {
	if n < 0 {
		return ErrInvalidArgument
	}
	if err := b.checkStructural(); err != nil {
		return err
	}
	b.resize(n)
	return nil
}

// Clear removes every bit from b.
func (b *BitArray) Clear() error {
	return b.Resize(0)
}

// Append appends the bit v to b.
func (b *BitArray) Append(v bool) error {
	if err := b.checkStructural(); err != nil {
		return err
	}
	n := b.nbits
	b.resize(n + 1)
	b.setbit(n, v)
	return nil
}

// AppendUint appends the low n bits of v,
// most significant bit first.
func (b *BitArray) AppendUint(v uint64, n int) error {
	if n < 0 || n > 64 {
		return ErrInvalidArgument
	}
	if err := b.checkStructural(); err != nil {
		return err
	}
	pos := b.nbits
	b.resize(pos + n)
	for i := 0; i < n; i++ {
		b.setbit(pos+i, v&(1<<(n-1-i)) != 0)
	}
	return nil
}

// Extend appends the bits of o to b.
// o may be b itself.
func (b *BitArray) Extend(o *BitArray) error {
	if err := b.checkStructural(); err != nil {
		return err
	}
	n, pos := o.nbits, b.nbits
	b.resize(pos + n)
	copyBits(b, pos, o, 0, n)
	return nil
}

// Insert inserts the bit v before index i.
// Insert panics unless 0 <= i <= b.Len().
func (b *BitArray) Insert(i int, v bool) error {
	b.checkRange(i, b.nbits)
	if err := b.checkStructural(); err != nil {
		return err
	}
	n := b.nbits
	b.resize(n + 1)
	copyBits(b, i+1, b, i, n-i)
	b.setbit(i, v)
	return nil
}

// Delete removes the bits [start, stop).
func (b *BitArray) Delete(start, stop int) error {
	b.checkRange(start, stop)
	if err := b.checkStructural(); err != nil {
		return err
	}
	n := b.nbits
	copyBits(b, start, b, stop, n-stop)
	b.resize(n - (stop - start))
	return nil
}

// SetEndian changes the endianness of b in place,
// keeping its logical bits. Since the raw bytes
// change, this counts as a structural mutation.
func (b *BitArray) SetEndian(e Endian) error {
	if err := b.checkStructural(); err != nil {
		return err
	}
	if e != b.endian {
		reverseBytes(b.live())
		b.endian = e
	}
	return nil
}
