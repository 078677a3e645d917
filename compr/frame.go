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

package compr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/SnellerInc/bitarray"

	"golang.org/x/crypto/blake2b"
)

// Frame layout:
//
//	"BITZ"       magic
//	version      1 byte
//	name length  1 byte, followed by the algorithm name
//	size         uvarint length of the serialized bitarray
//	sum          BLAKE2b-256 of the serialized bitarray
//	payload      compressed serialized bitarray
const (
	magic   = "BITZ"
	version = 1
)

var (
	// ErrBadFrame is returned by Unpack
	// for malformed frames.
	ErrBadFrame = errors.New("compr: bad frame")
	// ErrChecksum is returned by Unpack when the
	// decompressed data does not match its checksum.
	ErrChecksum = errors.New("compr: checksum mismatch")
	// ErrUnknownAlgorithm is returned for
	// unregistered algorithm names.
	ErrUnknownAlgorithm = errors.New("compr: unknown algorithm")
)

// Header describes a frame.
type Header struct {
	Algorithm string
	// Size is the length of the
	// serialized bitarray.
	Size int
	Sum  [blake2b.Size256]byte
	// Payload is the length of
	// the compressed payload.
	Payload int
}

// Packer writes frames.
// The zero value is ready to use.
type Packer struct {
	// Logf, if non-nil, receives the size
	// of every frame written.
	Logf func(f string, args ...any)
}

func (p *Packer) logf(f string, args ...any) {
	if p.Logf != nil {
		p.Logf(f, args...)
	}
}

// Pack returns b packed into a frame with
// the named compression algorithm.
func Pack(b *bitarray.BitArray, algo string) ([]byte, error) {
	var p Packer
	return p.Pack(b, algo)
}

// Best returns the smallest frame holding b
// over every registered algorithm and the
// name of the algorithm that produced it.
func Best(b *bitarray.BitArray) ([]byte, string, error) {
	var p Packer
	return p.Best(b)
}

func appendHeader(dst []byte, algo string, src []byte) []byte {
	dst = append(dst, magic...)
	dst = append(dst, version, byte(len(algo)))
	dst = append(dst, algo...)
	dst = binary.AppendUvarint(dst, uint64(len(src)))
	sum := blake2b.Sum256(src)
	return append(dst, sum[:]...)
}

// Pack returns b packed into a frame with
// the named compression algorithm.
func (p *Packer) Pack(b *bitarray.BitArray, algo string) ([]byte, error) {
	comp := Compression(algo)
	if comp == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownAlgorithm, algo)
	}
	src := b.Serialize()
	frame, err := comp.Compress(src, appendHeader(nil, algo, src))
	if err != nil {
		return nil, fmt.Errorf("compr: %s: %w", algo, err)
	}
	p.logf("packed %d bits (%d bytes) with %s into %d bytes", b.Len(), len(src), algo, len(frame))
	return frame, nil
}

// Best returns the smallest frame holding b
// over every registered algorithm and the
// name of the algorithm that produced it.
// Ties go to the algorithm whose name sorts first.
func (p *Packer) Best(b *bitarray.BitArray) ([]byte, string, error) {
	var best []byte
	var name string
	for _, algo := range Names() {
		frame, err := p.Pack(b, algo)
		if err != nil {
			return nil, "", err
		}
		if best == nil || len(frame) < len(best) {
			best, name = frame, algo
		}
	}
	return best, name, nil
}

// ParseHeader parses the header of a frame and
// returns it with the number of bytes it occupied.
func ParseHeader(frame []byte) (Header, int, error) {
	var h Header
	if !bytes.HasPrefix(frame, []byte(magic)) {
		return h, 0, fmt.Errorf("%w: missing magic", ErrBadFrame)
	}
	pos := len(magic)
	if len(frame) < pos+2 {
		return h, 0, fmt.Errorf("%w: truncated header", ErrBadFrame)
	}
	if v := frame[pos]; v != version {
		return h, 0, fmt.Errorf("%w: unsupported version %d", ErrBadFrame, v)
	}
	nlen := int(frame[pos+1])
	pos += 2
	if len(frame) < pos+nlen {
		return h, 0, fmt.Errorf("%w: truncated algorithm name", ErrBadFrame)
	}
	h.Algorithm = string(frame[pos : pos+nlen])
	pos += nlen
	size, n := binary.Uvarint(frame[pos:])
	if n <= 0 || size > math.MaxInt32 {
		return h, 0, fmt.Errorf("%w: bad size", ErrBadFrame)
	}
	h.Size = int(size)
	pos += n
	if len(frame) < pos+len(h.Sum) {
		return h, 0, fmt.Errorf("%w: truncated checksum", ErrBadFrame)
	}
	copy(h.Sum[:], frame[pos:])
	pos += len(h.Sum)
	h.Payload = len(frame) - pos
	return h, pos, nil
}

// DefaultMaxSize is the largest serialized
// bitarray accepted by Unpack.
const DefaultMaxSize = 1 << 27

// Unpacker reads frames.
// The zero value is ready to use.
type Unpacker struct {
	// MaxSize bounds the declared size of the
	// serialized bitarray; frames declaring more
	// are rejected before anything is allocated.
	// Zero means DefaultMaxSize.
	MaxSize int
}

// Unpack returns the bitarray held in frame.
// It is equivalent to (&Unpacker{}).Unpack(frame).
func Unpack(frame []byte) (*bitarray.BitArray, error) {
	var u Unpacker
	return u.Unpack(frame)
}

// Unpack returns the bitarray held in frame.
func (u *Unpacker) Unpack(frame []byte) (*bitarray.BitArray, error) {
	h, off, err := ParseHeader(frame)
	if err != nil {
		return nil, err
	}
	dec := Decompression(h.Algorithm)
	if dec == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownAlgorithm, h.Algorithm)
	}
	limit := u.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	if h.Size > limit {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrBadFrame, h.Size, limit)
	}
	if h.Algorithm == "none" && h.Payload != h.Size {
		return nil, fmt.Errorf("%w: %d payload bytes for size %d", ErrBadFrame, h.Payload, h.Size)
	}
	dst := make([]byte, h.Size)
	if err := dec.Decompress(frame[off:], dst); err != nil {
		return nil, fmt.Errorf("compr: %s: %w", h.Algorithm, err)
	}
	if blake2b.Sum256(dst) != h.Sum {
		return nil, ErrChecksum
	}
	return bitarray.Deserialize(dst)
}
