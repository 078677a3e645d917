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
	"math"
)

// Exporter is implemented by owners of memory
// that lend it out to views.
//
// Export returns the owner's memory and counts
// one live export; every successful Export must
// be paired with exactly one Release. While the
// count is non-zero the owner must not move or
// resize the memory.
type Exporter interface {
	Export() ([]byte, error)
	Release()
}

// Region is an Exporter over a caller-provided
// byte slice. It never reallocates, so it can be
// used to view foreign memory as bits.
type Region struct {
	data    []byte
	exports int
}

// NewRegion returns a Region over data.
func NewRegion(data []byte) *Region {
	return &Region{data: data}
}

// Export implements Exporter.
func (r *Region) Export() ([]byte, error) {
	r.exports++
	return r.data, nil
}

// Release implements Exporter.
func (r *Region) Release() {
	if r.exports == 0 {
		panic("bitarray: Region.Release without Export")
	}
	r.exports--
}

// Exports returns the number of live exports.
func (r *Region) Exports() int { return r.exports }

// Bytes returns the memory behind r.
func (r *Region) Bytes() []byte { return r.data }

// Export returns the live bytes of b (pad bits
// included) and counts one export. Until the
// matching Release, structural mutation of b
// fails with ErrBufferBusy. Writing to the
// returned memory of a read-only BitArray is
// a programming error.
func (b *BitArray) Export() ([]byte, error) {
	if b.closed {
		return nil, fmt.Errorf("%w: export of closed buffer", ErrInvalidBuffer)
	}
	b.exports++
	nb := bytesFor(b.nbits)
	return b.buf[:nb:nb], nil
}

// Release ends one export started with Export.
func (b *BitArray) Release() {
	if b.exports == 0 {
		panic("bitarray: Release without Export")
	}
	b.exports--
}

// WithExport calls fn with the exported bytes of b
// and releases the export when fn returns, whether
// or not fn fails.
func (b *BitArray) WithExport(fn func(p []byte) error) error {
	p, err := b.Export()
	if err != nil {
		return err
	}
	defer b.Release()
	return fn(p)
}

// Import returns a shared BitArray viewing the nbytes
// bytes of src starting at offset. The view holds one
// export of src until it is closed; it never reallocates,
// so structural mutation of the view fails with ErrBufferBusy.
// Bit writes through a writable view are visible to src.
// If src reports itself read-only (as a read-only *BitArray
// does), asking for a writable view fails with ErrReadOnly.
func Import(src Exporter, offset, nbytes int, e Endian, readonly bool) (*BitArray, error) {
	if ro, ok := src.(interface{ ReadOnly() bool }); ok && ro.ReadOnly() && !readonly {
		return nil, fmt.Errorf("%w: writable view of read-only memory", ErrReadOnly)
	}
	mem, err := src.Export()
	if err != nil {
		return nil, err
	}
	if offset < 0 || nbytes < 0 || offset > len(mem) || nbytes > len(mem)-offset {
		src.Release()
		return nil, fmt.Errorf("%w: range [%d:+%d] outside region of %d bytes",
			ErrInvalidBuffer, offset, nbytes, len(mem))
	}
	if nbytes > math.MaxInt/8 {
		src.Release()
		return nil, fmt.Errorf("%w: %d bytes cannot be addressed as bits", ErrInvalidBuffer, nbytes)
	}
	return &BitArray{
		buf:      mem[offset : offset+nbytes : offset+nbytes],
		nbits:    nbytes * 8,
		endian:   e,
		readonly: readonly,
		own:      Shared,
		owner:    src,
	}, nil
}

// View returns a shared view of the whole of b.
// It is shorthand for Import(b, 0, b.NBytes(), ...)
// followed by trimming the view to b.Len() bits.
func (b *BitArray) View(readonly bool) (*BitArray, error) {
	v, err := Import(b, 0, bytesFor(b.nbits), b.endian, readonly || b.readonly)
	if err != nil {
		return nil, err
	}
	v.nbits = b.nbits
	return v, nil
}

// Close releases the resources held by b.
// For a shared view, Close ends the export held
// on the owner; the owner's memory is untouched.
// For an exclusive buffer, Close drops the memory
// and fails with ErrBufferBusy if b is exported.
// Close is idempotent; a closed BitArray is empty.
func (b *BitArray) Close() error {
	if b.closed {
		return nil
	}
	if b.exports > 0 {
		return ErrBufferBusy
	}
	if b.own == Shared {
		b.owner.Release()
		b.owner = nil
	} else if b.readonly {
		return ErrReadOnly
	}
	b.buf = nil
	b.nbits = 0
	b.closed = true
	return nil
}
