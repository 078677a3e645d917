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
	"bytes"
	"errors"
	"io"
	"math"

	"github.com/SnellerInc/bitarray"
)

// Decoder decodes sparse streams.
// The zero value is ready to use.
type Decoder struct {
	// MaxBits, if positive, bounds the bit length
	// a stream header may declare. Streams declaring
	// more are rejected before any allocation.
	MaxBits int
}

// Decode reads one stream from r and returns the
// decoded bitarray. Decode reads r one byte at a time
// and stops right after the terminating block, so the
// rest of r is left for the caller.
func Decode(r io.ByteReader) (*bitarray.BitArray, error) {
	var d Decoder
	return d.Decode(r)
}

// DecodeBytes decodes the stream at the start of p
// and returns the number of bytes it occupied.
func DecodeBytes(p []byte) (*bitarray.BitArray, int, error) {
	rd := bytes.NewReader(p)
	b, err := Decode(rd)
	return b, len(p) - rd.Len(), err
}

func readByte(r io.ByteReader, what string) (byte, error) {
	c, err := r.ReadByte()
	if err == io.EOF {
		return 0, truncated(what)
	}
	return c, err
}

// Decode reads one stream from r.
func (d *Decoder) Decode(r io.ByteReader) (*bitarray.BitArray, error) {
	head, err := readByte(r, "header")
	if err != nil {
		return nil, err
	}
	if head&0xe0 != 0 || head&0x0f > 8 {
		return nil, invalid("header byte 0x%02x", head)
	}
	e := bitarray.LittleEndian
	if head&0x10 != 0 {
		e = bitarray.BigEndian
	}
	var length uint64
	for i := 0; i < int(head&0x0f); i++ {
		c, err := readByte(r, "length")
		if err != nil {
			return nil, err
		}
		length |= uint64(c) << (8 * i)
	}
	if length > math.MaxInt/2 || (d.MaxBits > 0 && length > uint64(d.MaxBits)) {
		return nil, invalid("bit length %d too large", length)
	}
	b := bitarray.New(int(length), e)
	err = b.WithExport(func(p []byte) error {
		return d.blocks(r, b, p)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// blocks decodes blocks into b, whose exported
// (zeroed) memory is p, until the terminator.
func (d *Decoder) blocks(r io.ByteReader, b *bitarray.BitArray, p []byte) error {
	rd, _ := r.(io.Reader)
	off := 0
	for {
		head, err := readByte(r, "block header")
		if err != nil {
			return err
		}
		switch {
		case head == stop:
			return nil
		case head <= rawLarge:
			n := rawLen(head)
			if n > len(p)-off {
				return invalid("raw block of %d bytes at offset %d overruns %d bytes", n, off, len(p))
			}
			if err := readRaw(r, rd, p[off:off+n]); err != nil {
				return err
			}
			off += n
		case head < typeWide, head >= typeWide+2 && head <= typeWide+4:
			k, n := 1, int(head-typeOne)
			if head >= typeWide {
				k = int(head - typeWide)
				c, err := readByte(r, "index count")
				if err != nil {
					return err
				}
				n = int(c)
			}
			if off >= len(p) && n > 0 {
				return invalid("sparse block past the end")
			}
			base := off * 8
			for j := 0; j < n; j++ {
				var idx int
				for i := 0; i < k; i++ {
					c, err := readByte(r, "index")
					if err != nil {
						return err
					}
					idx |= int(c) << (8 * i)
				}
				pos := base + idx
				if pos >= b.Len() || idx >= blockBytes(k)*8 {
					return invalid("index %d outside %d bits", pos, b.Len())
				}
				p[pos>>3] |= bitMask(b.Endian(), pos)
			}
			off = min(off+blockBytes(k), len(p))
		default:
			return invalid("block header 0x%02x", head)
		}
	}
}

func bitMask(e bitarray.Endian, pos int) byte {
	if e == bitarray.BigEndian {
		return 0x80 >> (pos & 7)
	}
	return 1 << (pos & 7)
}

func readRaw(r io.ByteReader, rd io.Reader, dst []byte) error {
	if rd != nil {
		_, err := io.ReadFull(rd, dst)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return truncated("raw block")
		}
		return err
	}
	for i := range dst {
		c, err := readByte(r, "raw block")
		if err != nil {
			return err
		}
		dst[i] = c
	}
	return nil
}
