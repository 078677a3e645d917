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

package huffman

import (
	"errors"
	"io"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/SnellerInc/bitarray"

	"golang.org/x/exp/slices"
)

func splitString(s string) []string {
	return strings.Split(s, "")
}

func TestAbracadabra(t *testing.T) {
	freq := map[string]int{"a": 5, "b": 3, "c": 1, "d": 1, "r": 2}
	c, err := Build(freq, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{0, 1, 1, 1, 2}; !slices.Equal(c.Count, want) {
		t.Errorf("count = %v, want %v", c.Count, want)
	}
	if want := []string{"a", "b", "r", "c", "d"}; !slices.Equal(c.Symbols, want) {
		t.Errorf("symbols = %v, want %v", c.Symbols, want)
	}
	codes := map[string]string{"a": "0", "b": "10", "r": "110", "c": "1110", "d": "1111"}
	for s, want := range codes {
		b, ok := c.Bits(s)
		if !ok {
			t.Fatalf("no code for %q", s)
		}
		if got := b.String(); got != want {
			t.Errorf("code(%q) = %s, want %s", s, got, want)
		}
	}
	for _, e := range []bitarray.Endian{bitarray.BigEndian, bitarray.LittleEndian} {
		dst := bitarray.New(0, e)
		msg := splitString("abracadabra")
		if err := c.Encode(dst, msg); err != nil {
			t.Fatal(err)
		}
		if got, want := dst.String(), "01011001110011110101100"; got != want {
			t.Errorf("%s: encoded %s, want %s", e, got, want)
		}
		out, err := Decode(dst, c.Count, c.Symbols)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(out, msg) {
			t.Errorf("%s: decoded %v", e, out)
		}
	}
	if err := c.Encode(bitarray.New(0, bitarray.BigEndian), []string{"z"}); !errors.Is(err, bitarray.ErrInvalidArgument) {
		t.Errorf("encoding unknown symbol: %v", err)
	}
}

func TestSingleSymbol(t *testing.T) {
	c, err := Build(map[byte]int{'x': 7}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(c.Count, []int{0, 1}) {
		t.Fatalf("count = %v", c.Count)
	}
	b, _ := c.Bits('x')
	if b.String() != "0" {
		t.Fatalf("code = %s", b)
	}
	out, err := Decode(bitarray.MustString("000", bitarray.BigEndian), c.Count, c.Symbols)
	if err != nil || string(out) != "xxx" {
		t.Fatalf("decode: %q %v", out, err)
	}
	_, err = Decode(bitarray.MustString("01", bitarray.BigEndian), c.Count, c.Symbols)
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("decoding unused code: %v", err)
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(map[int]int{}, 0); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("empty map: %v", err)
	}
	if _, err := BuildSlice([]Frequency[int]{{1, 2}, {1, 3}}, 0); !errors.Is(err, bitarray.ErrInvalidArgument) {
		t.Errorf("duplicate: %v", err)
	}
	if _, err := BuildSlice([]Frequency[int]{{1, -1}, {2, 3}}, 0); !errors.Is(err, bitarray.ErrInvalidArgument) {
		t.Errorf("negative: %v", err)
	}
	freq := make(map[int]int)
	for i := 0; i < 300; i++ {
		freq[i] = i
	}
	if _, err := Build(freq, 8); !errors.Is(err, ErrCodeLength) {
		t.Errorf("300 symbols in 8 bits: %v", err)
	}
}

func TestEncodeUnknownSymbol(t *testing.T) {
	c, err := Build(map[string]int{"a": 5, "b": 3, "c": 1, "d": 1, "r": 2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	dst := bitarray.MustString("1", bitarray.BigEndian)
	if err := c.Encode(dst, splitString("abz")); !errors.Is(err, bitarray.ErrInvalidArgument) {
		t.Fatalf("got %v", err)
	}
	if dst.String() != "1" {
		t.Fatalf("dst = %s after failed Encode", dst)
	}
}

func TestOrdinalTies(t *testing.T) {
	c, err := BuildSlice([]Frequency[string]{{"y", 1}, {"x", 1}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(c.Symbols, []string{"y", "x"}) {
		t.Fatalf("symbols = %v", c.Symbols)
	}
	c, err = Build(map[string]int{"y": 1, "x": 1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(c.Symbols, []string{"x", "y"}) {
		t.Fatalf("symbols = %v", c.Symbols)
	}
}

// optimalCost computes the weighted path
// length of any Huffman tree for freq.
func optimalCost(freq []int) int {
	if len(freq) == 1 {
		return freq[0]
	}
	w := slices.Clone(freq)
	cost := 0
	for len(w) > 1 {
		sort.Ints(w)
		s := w[0] + w[1]
		cost += s
		w = append(w[2:], s)
	}
	return cost
}

// checkComplete verifies that c is a complete
// prefix code consistent with its tables.
func checkComplete[S comparable](t *testing.T, c *Code[S]) {
	t.Helper()
	if err := Check(c.Count, c.Symbols); err != nil {
		t.Fatal(err)
	}
	longest := len(c.Count) - 1
	var kraft uint64
	for l, n := range c.Count {
		if l > 0 {
			kraft += uint64(n) << (longest - l)
		}
	}
	if len(c.Symbols) > 1 && kraft != 1<<longest {
		t.Fatalf("code is not complete: %d/%d", kraft, uint64(1)<<longest)
	}
	lengths := c.Lengths()
	prev := 0
	for _, s := range c.Symbols {
		if lengths[s] < prev {
			t.Fatalf("symbols not ordered by length")
		}
		prev = lengths[s]
	}
}

func TestRandomCodes(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for iter := 0; iter < 200; iter++ {
		n := 1 + rnd.Intn(300)
		freq := make([]Frequency[int], n)
		weights := make([]int, n)
		for i := range freq {
			w := rnd.Intn(1000)
			if rnd.Intn(8) == 0 {
				w = 0
			}
			freq[i] = Frequency[int]{Symbol: i * 3, Count: w}
			weights[i] = w
		}
		c, err := BuildSlice(freq, 0)
		if err != nil {
			t.Fatal(err)
		}
		checkComplete(t, c)
		lengths := c.Lengths()
		cost := 0
		for i := range freq {
			cost += freq[i].Count * lengths[freq[i].Symbol]
		}
		if want := optimalCost(weights); n > 1 && cost != want {
			t.Fatalf("iter %d: cost %d, want %d", iter, cost, want)
		}
		msg := make([]int, rnd.Intn(500))
		for i := range msg {
			msg[i] = freq[rnd.Intn(n)].Symbol
		}
		dst := bitarray.New(0, bitarray.LittleEndian)
		if err := c.Encode(dst, msg); err != nil {
			t.Fatal(err)
		}
		out, err := Decode(dst, c.Count, c.Symbols)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(out, msg) {
			t.Fatalf("iter %d: round trip mismatch", iter)
		}
	}
}

func TestLengthLimit(t *testing.T) {
	// Fibonacci weights produce the deepest trees
	freq := make([]Frequency[int], 40)
	a, b := 1, 1
	for i := range freq {
		freq[i] = Frequency[int]{Symbol: i, Count: a}
		a, b = b, a+b
	}
	c, err := BuildSlice(freq, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Count)-1 != 39 {
		t.Fatalf("unlimited depth %d", len(c.Count)-1)
	}
	for _, limit := range []int{6, 8, 12, 39} {
		c, err := BuildSlice(freq, limit)
		if err != nil {
			t.Fatal(err)
		}
		if len(c.Count)-1 > limit {
			t.Fatalf("limit %d: depth %d", limit, len(c.Count)-1)
		}
		checkComplete(t, c)
		lengths := c.Lengths()
		// heavier symbols never get longer codes
		for i := 1; i < len(freq); i++ {
			if lengths[i] > lengths[i-1] {
				t.Fatalf("limit %d: symbol %d has length %d > %d", limit, i, lengths[i], lengths[i-1])
			}
		}
		msg := []int{0, 39, 5, 20, 38, 1}
		dst := bitarray.New(0, bitarray.BigEndian)
		if err := c.Encode(dst, msg); err != nil {
			t.Fatal(err)
		}
		out, err := Decode(dst, c.Count, c.Symbols)
		if err != nil || !slices.Equal(out, msg) {
			t.Fatalf("limit %d: %v %v", limit, out, err)
		}
	}
	if _, err := BuildSlice(freq, 5); !errors.Is(err, ErrCodeLength) {
		t.Fatalf("40 symbols in 5 bits: %v", err)
	}
}

func TestDecoder(t *testing.T) {
	count := []int{0, 1, 1, 1, 2}
	symbols := []byte("abrcd")
	src := bitarray.MustString("0101100111", bitarray.BigEndian)
	d, err := NewDecoder(src, count, symbols)
	if err != nil {
		t.Fatal(err)
	}
	var got []byte
	for {
		s, err := d.Next()
		if err != nil {
			if !errors.Is(err, bitarray.ErrUnderflow) {
				t.Fatalf("got %v, want underflow", err)
			}
			break
		}
		got = append(got, s)
	}
	if string(got) != "abra" || d.Pos() != 7 {
		t.Fatalf("got %q at %d", got, d.Pos())
	}
	// errors do not advance
	if _, err := d.Next(); !errors.Is(err, bitarray.ErrUnderflow) || d.Pos() != 7 {
		t.Fatalf("second Next: %v at %d", err, d.Pos())
	}
	d, _ = NewDecoder(bitarray.New(0, bitarray.BigEndian), count, symbols)
	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("empty input: %v", err)
	}
	// incomplete code: "11" matches nothing
	_, err = Decode(bitarray.MustString("0011", bitarray.BigEndian), []int{0, 1, 1}, []byte("ab"))
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("incomplete code: %v", err)
	}
}

func TestCheck(t *testing.T) {
	cases := []struct {
		count   []int
		symbols string
		ok      bool
	}{
		{[]int{0, 1, 1, 1, 2}, "abrcd", true},
		{[]int{0, 1, 1}, "ab", true},
		{[]int{0}, "", true},
		{nil, "", false},
		{[]int{1, 1}, "ab", false},
		{[]int{0, 3}, "abc", false},
		{[]int{0, 1, 1, 1, 3}, "abcdef", false},
		{[]int{0, 1, 1}, "abc", false},
		{[]int{0, -1, 2}, "a", false},
		{make([]int, MaxCodeLength+2), "", false},
		{make([]int, MaxCodeLength+1), "", true},
		{deep(1), "a", true},
		{deep(2), "ab", true},
		{deep(3), "abc", true},
	}
	for i := range cases {
		err := Check(cases[i].count, []byte(cases[i].symbols))
		if (err == nil) != cases[i].ok {
			t.Errorf("case %d: %v", i, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidCode) {
			t.Errorf("case %d: unexpected error %v", i, err)
		}
	}
	if _, err := NewDecoder(bitarray.New(0, bitarray.BigEndian), []int{0, 3}, []byte("abc")); err == nil {
		t.Error("NewDecoder accepted an over-subscribed table")
	}
}

// deep returns a count table with n codes
// of the longest length and no others.
func deep(n int) []int {
	count := make([]int, MaxCodeLength+1)
	count[MaxCodeLength] = n
	return count
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte{0x59, 0xcf, 0x58})
	f.Add([]byte{0xff})
	f.Add([]byte{})
	c, err := Build(map[string]int{"a": 5, "b": 3, "c": 1, "d": 1, "r": 2}, 0)
	if err != nil {
		f.Fatal(err)
	}
	f.Fuzz(func(t *testing.T, p []byte) {
		src := bitarray.FromBytes(p, bitarray.BigEndian)
		d := c.Decoder(src)
		var out []string
		for {
			s, err := d.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				if !errors.Is(err, bitarray.ErrUnderflow) {
					t.Fatalf("unexpected error %v", err)
				}
				break
			}
			out = append(out, s)
		}
		// re-encoding reproduces the consumed prefix
		dst := bitarray.New(0, bitarray.BigEndian)
		if err := c.Encode(dst, out); err != nil {
			t.Fatal(err)
		}
		if !bitarray.Equal(dst, src.Slice(0, d.Pos())) {
			t.Fatalf("re-encoded %s, consumed %s", dst, src.Slice(0, d.Pos()))
		}
	})
}
