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
	"bufio"
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"
	"testing/iotest"

	"github.com/SnellerInc/bitarray"
)

func randomSparse(rng *rand.Rand, n int, p float64, e bitarray.Endian) *bitarray.BitArray {
	b := bitarray.New(n, e)
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			b.Set(i, true)
		}
	}
	return b
}

func roundTrip(t *testing.T, b *bitarray.BitArray) []byte {
	t.Helper()
	enc, err := Encode(b)
	if err != nil {
		t.Fatal(err)
	}
	if b.Exports() != 0 {
		t.Fatal("Encode leaked an export")
	}
	got, n, err := DecodeBytes(enc)
	if err != nil {
		t.Fatalf("decoding %d bits: %v", b.Len(), err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d of %d bytes", n, len(enc))
	}
	if got.Endian() != b.Endian() || !bitarray.Equal(got, b) {
		t.Fatalf("round trip mismatch for %d bits", b.Len())
	}
	return enc
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	densities := []float64{0, 0.0001, 0.001, 0.01, 0.05, 0.2, 0.5, 0.9, 1}
	for _, e := range []bitarray.Endian{bitarray.BigEndian, bitarray.LittleEndian} {
		for _, p := range densities {
			for _, n := range []int{0, 1, 7, 8, 9, 255, 256, 257, 1000, 8192 * 8, 70000, 300000} {
				roundTrip(t, randomSparse(rng, n, p, e))
			}
		}
	}
}

func TestBoundaries(t *testing.T) {
	enc := roundTrip(t, bitarray.New(0, bitarray.BigEndian))
	if !bytes.Equal(enc, []byte{0x10, 0x00}) {
		t.Fatalf("empty big-endian: %x", enc)
	}
	enc = roundTrip(t, bitarray.New(0, bitarray.LittleEndian))
	if !bytes.Equal(enc, []byte{0x00, 0x00}) {
		t.Fatalf("empty little-endian: %x", enc)
	}
	roundTrip(t, bitarray.Ones(12345, bitarray.BigEndian))
	roundTrip(t, bitarray.New(12345, bitarray.LittleEndian))
	for _, e := range []bitarray.Endian{bitarray.BigEndian, bitarray.LittleEndian} {
		for _, n := range []int{8, 64, 1023, 1024, 8192 * 8} {
			roundTrip(t, bitarray.Ones(n, e))
		}
	}
}

func TestWholeLastByte(t *testing.T) {
	b := bitarray.New(8, bitarray.BigEndian)
	b.Set(0, true)
	enc := roundTrip(t, b)
	// header, one length byte, raw block of one byte, stop
	want := []byte{0x11, 0x08, 0x01, 0x80, 0x00}
	if !bytes.Equal(enc, want) {
		t.Fatalf("got %x, want %x", enc, want)
	}
}

func TestPadBitsIgnored(t *testing.T) {
	b := bitarray.Ones(13, bitarray.LittleEndian)
	b.Resize(3)
	b.Resize(13) // bits 3..12 are unspecified
	b.SetRange(3, 13, false)
	b.Resize(11)
	enc := roundTrip(t, b)
	c := b.Clone()
	c.Resize(16)
	c.SetRange(11, 16, true)
	c.Resize(11)
	enc2, _ := Encode(c)
	if !bytes.Equal(enc, enc2) {
		t.Fatalf("pad bits changed the encoding: %x vs %x", enc, enc2)
	}
}

func TestBlockTypes(t *testing.T) {
	var enc Encoder
	var logged int
	enc.Logf = func(f string, args ...any) { logged++ }

	// one byte of one-byte indices
	b := bitarray.New(256, bitarray.BigEndian)
	b.Set(3, true)
	b.Set(200, true)
	out, err := enc.Encode(b)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x12, 0x00, 0x01, 0xa2, 3, 200, 0x00}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %x, want %x", out, want)
	}
	if logged != 1 {
		t.Fatal("Logf not called")
	}

	// dense: raw
	enc.Stats = Stats{}
	d := bitarray.Ones(64*8, bitarray.LittleEndian)
	out, _ = enc.Encode(d)
	if enc.Stats[0].Blocks != 1 || out[3] != rawHead(64) || len(out) != 3+1+64+1 {
		t.Fatalf("dense: %x", out)
	}

	// very sparse and long: wide indices
	enc.Stats = Stats{}
	long := bitarray.New(20_000_000, bitarray.LittleEndian)
	long.Set(19_999_999, true)
	roundTrip(t, long)
	out, _ = enc.Encode(long)
	if enc.Stats[4].Blocks != 1 || len(out) > 16 {
		t.Fatalf("long sparse: %x (%+v)", out, enc.Stats)
	}

	enc.Stats = Stats{}
	mid := bitarray.New(8192*8*3, bitarray.BigEndian)
	for i := 0; i < mid.Len(); i += 1000 {
		mid.Set(i, true)
	}
	roundTrip(t, mid)
	enc.Encode(mid)
	if enc.Stats[2].Blocks == 0 {
		t.Fatalf("expected two-byte index blocks: %+v", enc.Stats)
	}
}

func TestRawHead(t *testing.T) {
	for _, n := range []int{0, 1, 31, 32, 64, 4096} {
		h := rawHead(n)
		if h > rawLarge || rawLen(h) != n {
			t.Errorf("rawHead(%d) = %x -> %d", n, h, rawLen(h))
		}
	}
}

func TestBackToBack(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := randomSparse(rng, 5000, 0.01, bitarray.BigEndian)
	b := randomSparse(rng, 333, 0.5, bitarray.LittleEndian)
	ea, _ := Encode(a)
	eb, _ := Encode(b)
	tail := []byte{0xde, 0xad}
	stream := append(append(append([]byte{}, ea...), eb...), tail...)

	// plain ByteReader, no io.Reader
	r := iotest.OneByteReader(bytes.NewReader(stream))
	br := bufio.NewReaderSize(r, 16)
	got, err := Decode(br)
	if err != nil || !bitarray.Equal(got, a) {
		t.Fatalf("first: %v", err)
	}
	got, err = Decode(br)
	if err != nil || !bitarray.Equal(got, b) {
		t.Fatalf("second: %v", err)
	}
	rest, err := io.ReadAll(br)
	if err != nil || !bytes.Equal(rest, tail) {
		t.Fatalf("remainder %x (%v)", rest, err)
	}
}

type byteOnly struct{ p []byte }

func (b *byteOnly) ReadByte() (byte, error) {
	if len(b.p) == 0 {
		return 0, io.EOF
	}
	c := b.p[0]
	b.p = b.p[1:]
	return c, nil
}

func TestByteOnlySource(t *testing.T) {
	a := bitarray.Ones(1000, bitarray.BigEndian)
	ea, _ := Encode(a)
	src := &byteOnly{p: append(ea, 1, 2, 3)}
	got, err := Decode(src)
	if err != nil || !bitarray.Equal(got, a) {
		t.Fatalf("got %v", err)
	}
	if len(src.p) != 3 {
		t.Fatalf("consumed too much: %d left", len(src.p))
	}
}

func TestTruncated(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b := randomSparse(rng, 3000, 0.1, bitarray.BigEndian)
	enc, _ := Encode(b)
	for i := 0; i < len(enc); i++ {
		_, _, err := DecodeBytes(enc[:i])
		if !errors.Is(err, bitarray.ErrTruncated) {
			t.Fatalf("prefix of %d bytes: got %v", i, err)
		}
	}
}

func TestInvalid(t *testing.T) {
	cases := [][]byte{
		{0x20},                   // bad header
		{0x09},                   // too many length bytes
		{0x01, 0x08, 0x02, 0, 0}, // raw block overruns 1 byte
		{0x01, 0x08, 0xa1, 0x08}, // index past the end
		{0x01, 0x08, 0xc1, 0x00}, // no such block type
		{0x01, 0x08, 0xc5, 0x00}, // no such block type
		{0x01, 0x08, 0xe0},       // no such block type
	}
	for _, c := range cases {
		if _, _, err := DecodeBytes(c); !errors.Is(err, ErrInvalidStream) {
			t.Errorf("%x: got %v", c, err)
		}
	}
	d := Decoder{MaxBits: 100}
	if _, err := d.Decode(bytes.NewReader([]byte{0x01, 0xff, 0x00})); !errors.Is(err, ErrInvalidStream) {
		t.Errorf("MaxBits: got %v", err)
	}
}

func TestEarlyTerminator(t *testing.T) {
	// the terminator may come before the last byte;
	// the remaining bits are zero
	got, _, err := DecodeBytes([]byte{0x01, 0x20, 0xa1, 0x05, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 32 || got.Count(true) != 1 || !got.Get(5) {
		t.Fatalf("got %s", got)
	}
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte{0x00, 0x00})
	f.Add([]byte{0x12, 0x00, 0x01, 0xa2, 3, 200, 0x00})
	f.Add([]byte{0x01, 0x20, 0x04, 1, 2, 3, 4, 0x00})
	f.Add([]byte{0x02, 0x00, 0x02, 0xc2, 0x01, 0x34, 0x12, 0x00})
	f.Fuzz(func(t *testing.T, p []byte) {
		d := Decoder{MaxBits: 1 << 20}
		b, err := d.Decode(bytes.NewReader(p))
		if err != nil {
			return
		}
		enc, err := Encode(b)
		if err != nil {
			t.Fatal(err)
		}
		c, _, err := DecodeBytes(enc)
		if err != nil {
			t.Fatal(err)
		}
		if !bitarray.Equal(b, c) {
			t.Fatal("re-encoding changed the value")
		}
	})
}
