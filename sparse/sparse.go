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

// Package sparse implements a compact encoding of
// bitarrays whose set bits are a small fraction of
// their length.
//
// A stream starts with a header byte holding the
// endianness in bit 4 (1 for big-endian) and, in the
// low nibble, the number (0 to 8) of little-endian
// bytes that follow it and hold the bit length.
// Then come self-delimiting blocks, each starting
// with a header byte:
//
//	0x00         end of stream
//	0x01..0x1f   raw block of 1..31 bytes
//	0x20..0x9f   raw block of 32*(head-31) bytes (64..4096)
//	0xa0..0xbf   head-0xa0 one-byte indices, block of 32 bytes
//	0xc2         n two-byte indices, block of 8192 bytes
//	0xc3         n three-byte indices, block of 2 MiB
//	0xc4         n four-byte indices, block of 512 MiB
//
// For types 2 to 4 the byte after the header holds n.
// Indices are little-endian and count bits from the
// start of the block. Blocks advance through the
// buffer in order; a block past the last byte of
// the buffer covers only the bytes that remain.
package sparse

import (
	"errors"
	"fmt"

	"github.com/SnellerInc/bitarray"
)

// ErrInvalidStream is returned when a stream
// is not a well-formed sparse encoding.
var ErrInvalidStream = errors.New("sparse: invalid stream")

const (
	stop       = 0x00
	rawSmall   = 0x1f // largest head for a raw block of head bytes
	rawMax     = 4096 // largest raw block, in bytes
	rawLarge   = 0x9f
	typeOne    = 0xa0
	typeOneMax = 31 // indices in a type 1 block
	typeWide   = 0xc0
	wideMax    = 255 // indices in a type 2..4 block
	segment    = 32  // bytes covered by a type 1 block
)

// blockBytes returns the number of bytes
// covered by a sparse block with k-byte indices.
func blockBytes(k int) int {
	return segment << (8 * (k - 1))
}

// rawHead returns the header byte for a raw block
// of n bytes; n must be <= 31 or a multiple of 32.
func rawHead(n int) byte {
	if n <= rawSmall {
		return byte(n)
	}
	return byte(rawSmall + n/segment)
}

// rawLen is the inverse of rawHead.
func rawLen(head byte) int {
	if head <= rawSmall {
		return int(head)
	}
	return segment * int(head-rawSmall)
}

func truncated(what string) error {
	return fmt.Errorf("sparse: %s: %w", what, bitarray.ErrTruncated)
}

func invalid(f string, args ...any) error {
	return fmt.Errorf("%w: "+f, append([]any{ErrInvalidStream}, args...)...)
}
