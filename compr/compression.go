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

// Package compr packs serialized bitarrays into
// self-describing, checksummed frames using one of
// several compression algorithms.
package compr

import (
	"bytes"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/SnellerInc/bitarray"
	"github.com/SnellerInc/bitarray/sparse"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Compressor describes the interface that
// Pack needs a compression algorithm to implement.
type Compressor interface {
	// Name is the name of the compression algorithm.
	Name() string
	// Compress should append the compressed contents
	// of src to dst and return the result.
	Compress(src, dst []byte) ([]byte, error)
}

// Decompressor is the interface that
// Unpack uses to decompress payloads.
type Decompressor interface {
	// Name is the name of the compression algorithm.
	// See also Compressor.Name.
	Name() string
	// Decompress decompresses source data
	// into dst. It should error out if the
	// decoded data does not fill dst exactly.
	//
	// It must be safe to make multiple
	// calls to Decompress simultaneously
	// from different goroutines.
	Decompress(src, dst []byte) error
}

type zstdCompressor struct {
	enc  *zstd.Encoder
	name string
}

func (z zstdCompressor) Compress(src, dst []byte) ([]byte, error) {
	return z.enc.EncodeAll(src, dst), nil
}

func (z zstdCompressor) Name() string { return z.name }

var zstdDecoder *zstd.Decoder

func init() {
	// by default, concurrency is set to min(4, GOMAXPROCS);
	// we'd like it to *always* be GOMAXPROCS
	z, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		panic(err)
	}
	zstdDecoder = z
}

type zstdDecompressor struct {
	dec  *zstd.Decoder
	name string
}

func (z zstdDecompressor) Name() string { return z.name }

func (z zstdDecompressor) Decompress(src, dst []byte) error {
	into := dst[:0:len(dst)]
	ret, err := z.dec.DecodeAll(src, into)
	if err != nil {
		return err
	}
	return fits(z.name, ret, dst)
}

// fits checks that a decoder wrote exactly
// len(dst) bytes into dst.
func fits(name string, ret, dst []byte) error {
	if len(ret) != len(dst) {
		return fmt.Errorf("%s: expected %d bytes decompressed; got %d", name, len(dst), len(ret))
	}
	// the decoder should not have had to
	// realloc the buffer
	if len(ret) > 0 && &ret[0] != &dst[0] {
		return fmt.Errorf("%s decompress: output buffer realloc'd", name)
	}
	return nil
}

type s2Compressor struct{}

func (s2Compressor) Compress(src, dst []byte) ([]byte, error) {
	tail := dst[len(dst):cap(dst)]
	// s2 requires non-overlapping src and dst
	if overlaps(src, tail) {
		tail = nil
	}
	got := s2.Encode(tail, src)
	if len(dst) == 0 {
		return got, nil
	}
	if len(tail) > 0 && len(got) > 0 && &tail[0] == &got[0] {
		return dst[:len(dst)+len(got)], nil
	}
	return append(dst, got...), nil
}

func (s2Compressor) Decompress(src, dst []byte) error {
	into := dst[:0:len(dst)]
	ret, err := s2.Decode(into, src)
	if err != nil {
		return err
	}
	return fits("s2", ret, dst)
}

func (s2Compressor) Name() string { return "s2" }

// noCompression stores payloads verbatim.
type noCompression struct{}

func (noCompression) Name() string { return "none" }

func (noCompression) Compress(src, dst []byte) ([]byte, error) {
	return append(dst, src...), nil
}

func (noCompression) Decompress(src, dst []byte) error {
	if len(src) != len(dst) {
		return fmt.Errorf("none: expected %d bytes; got %d", len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

// sparseCompression applies the sparse bitarray
// codec to a serialized bitarray.
type sparseCompression struct{}

func (sparseCompression) Name() string { return "sparse" }

func (sparseCompression) Compress(src, dst []byte) ([]byte, error) {
	b, err := bitarray.Deserialize(src)
	if err != nil {
		return nil, err
	}
	var enc sparse.Encoder
	return enc.AppendEncode(dst, b)
}

func (sparseCompression) Decompress(src, dst []byte) error {
	d := sparse.Decoder{MaxBits: 8 * len(dst)}
	rd := bytes.NewReader(src)
	b, err := d.Decode(rd)
	if err != nil {
		return err
	}
	if rd.Len() != 0 {
		return fmt.Errorf("sparse: %d trailing bytes after stream", rd.Len())
	}
	ser := b.Serialize()
	if len(ser) != len(dst) {
		return fmt.Errorf("sparse: expected %d bytes decompressed; got %d", len(dst), len(ser))
	}
	copy(dst, ser)
	return nil
}

var compressors = map[string]func() Compressor{
	"none":   func() Compressor { return noCompression{} },
	"sparse": func() Compressor { return sparseCompression{} },
	"s2":     func() Compressor { return s2Compressor{} },
	"zstd": func() Compressor {
		z, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		return zstdCompressor{enc: z, name: "zstd"}
	},
	"zstd-better": func() Compressor {
		z, _ := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithEncoderConcurrency(1))
		return zstdCompressor{enc: z, name: "zstd-better"}
	},
}

// Names returns the names accepted by
// Compression and Decompression, sorted.
func Names() []string {
	names := maps.Keys(compressors)
	slices.Sort(names)
	return names
}

// Compression selects a compression algorithm by name.
// The returned Compressor will return the same value
// for Compressor.Name as the specified name.
// Compression returns nil for unknown names.
func Compression(name string) Compressor {
	mk, ok := compressors[name]
	if !ok {
		return nil
	}
	return mk()
}

// Decompression selects a decompression algorithm
// by name, or returns nil for unknown names.
func Decompression(name string) Decompressor {
	switch name {
	case "zstd", "zstd-better":
		return zstdDecompressor{dec: zstdDecoder, name: name}
	case "s2":
		return s2Compressor{}
	case "none":
		return noCompression{}
	case "sparse":
		return sparseCompression{}
	default:
		return nil
	}
}

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
