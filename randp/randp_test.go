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

package randp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/SnellerInc/bitarray"
)

// within reports whether got is within
// 6 standard deviations of n*p.
func within(got, n int, p float64) bool {
	mean := float64(n) * p
	sd := math.Sqrt(float64(n) * p * (1 - p))
	return math.Abs(float64(got)-mean) <= 6*sd+1e-9
}

func TestOpSeq(t *testing.T) {
	for i := 1; i < K; i++ {
		q := 0.5
		for _, or := range opSeq(i) {
			if or {
				q = (1 + q) / 2
			} else {
				q /= 2
			}
		}
		if q != float64(i)/K {
			t.Errorf("opSeq(%d) yields %g, want %g", i, q, float64(i)/K)
		}
	}
	if len(opSeq(K/2)) != 0 {
		t.Error("opSeq(K/2) should be empty")
	}
	if len(opSeq(1)) != M-1 {
		t.Errorf("opSeq(1) has %d operations", len(opSeq(1)))
	}
}

func TestRandomP(t *testing.T) {
	const n = 1000000
	g := New(Seeded(1))
	for _, p := range []float64{0, 0.001, 0.005, 0.1, 0.25, 0.3, 0.5, 0.7, 0.9999, 1} {
		for _, e := range []bitarray.Endian{bitarray.BigEndian, bitarray.LittleEndian} {
			a, err := g.RandomP(n, p, e)
			if err != nil {
				t.Fatal(err)
			}
			if a.Len() != n || a.Endian() != e {
				t.Fatalf("p=%g: got %d bits %s", p, a.Len(), a.Endian())
			}
			c := a.Count(true)
			if !within(c, n, p) {
				t.Errorf("p=%g %s: %d bits set", p, e, c)
			}
			// every part of the array gets its share
			const parts = 8
			for j := 0; j < parts; j++ {
				lo, hi := j*n/parts, (j+1)*n/parts
				c, _ := a.CountRange(lo, hi, 1)
				if !within(c, hi-lo, p) {
					t.Errorf("p=%g: part %d has %d bits set", p, j, c)
				}
			}
		}
	}
	if a, _ := g.RandomP(n, 0, bitarray.BigEndian); a.Count(true) != 0 {
		t.Error("p=0 set bits")
	}
	if a, _ := g.RandomP(n, 1, bitarray.BigEndian); a.Count(false) != 0 {
		t.Error("p=1 cleared bits")
	}
}

func TestSmallArrays(t *testing.T) {
	g := New(Seeded(2))
	for n := 0; n < 40; n++ {
		total := 0
		const rounds = 2000
		for r := 0; r < rounds; r++ {
			a, err := g.RandomP(n, 0.2, bitarray.LittleEndian)
			if err != nil {
				t.Fatal(err)
			}
			if a.Len() != n {
				t.Fatalf("got %d bits, want %d", a.Len(), n)
			}
			total += a.Count(true)
		}
		if !within(total, n*rounds, 0.2) {
			t.Errorf("n=%d: %d of %d bits set", n, total, n*rounds)
		}
	}
}

func TestRandomK(t *testing.T) {
	g := New(Seeded(3))
	for _, n := range []int{0, 1, 10, 100, 1000, 100000} {
		for _, k := range []int{0, 1, 7, 20, n / 3, n / 2, n - 5, n - 1, n} {
			if k < 0 || k > n {
				continue
			}
			a, err := g.RandomK(n, k, bitarray.BigEndian)
			if err != nil {
				t.Fatal(err)
			}
			if a.Len() != n || a.Count(true) != k {
				t.Fatalf("RandomK(%d, %d): %d bits, %d set", n, k, a.Len(), a.Count(true))
			}
		}
	}
	// positions are uniform
	const n, k, rounds = 64, 5, 20000
	var hits [n]int
	for r := 0; r < rounds; r++ {
		a, _ := g.RandomK(n, k, bitarray.LittleEndian)
		for i := 0; i < n; i++ {
			if a.Get(i) {
				hits[i]++
			}
		}
	}
	for i, h := range hits {
		if !within(h, rounds, float64(k)/n) {
			t.Errorf("position %d set %d times", i, h)
		}
	}
	if _, err := g.RandomK(10, 11, bitarray.BigEndian); !errors.Is(err, bitarray.ErrInvalidArgument) {
		t.Errorf("k > n: %v", err)
	}
}

func TestBinomial(t *testing.T) {
	g := New(Seeded(4))
	cases := []struct {
		n int
		p float64
	}{
		{1, 0.3},
		{100, 0.01},   // geometric
		{1000, 0.005}, // geometric
		{1000, 0.3},   // BTRS
		{100000, 0.5},
		{50, 0.95},
	}
	for _, c := range cases {
		const rounds = 4000
		sum := 0
		for r := 0; r < rounds; r++ {
			k, err := g.Binomial(c.n, c.p)
			if err != nil {
				t.Fatal(err)
			}
			if k < 0 || k > c.n {
				t.Fatalf("binomial(%d, %g) = %d", c.n, c.p, k)
			}
			sum += k
		}
		// the sum of the samples is binomial(rounds*n, p)
		if !within(sum, rounds*c.n, c.p) {
			t.Errorf("binomial(%d, %g): mean %g", c.n, c.p, float64(sum)/rounds)
		}
	}
	for _, c := range []struct {
		n int
		p float64
	}{{-1, 0.5}, {10, -0.1}, {10, 1.5}, {10, math.NaN()}} {
		if _, err := g.Binomial(c.n, c.p); !errors.Is(err, bitarray.ErrInvalidArgument) {
			t.Errorf("binomial(%d, %g): %v", c.n, c.p, err)
		}
	}
}

func TestSeeded(t *testing.T) {
	a, err := New(Seeded(42)).RandomP(10000, 0.37, bitarray.BigEndian)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(Seeded(42)).RandomP(10000, 0.37, bitarray.BigEndian)
	if err != nil {
		t.Fatal(err)
	}
	if !bitarray.Equal(a, b) {
		t.Fatal("same seed produced different arrays")
	}
	c, _ := New(Seeded(43)).RandomP(10000, 0.37, bitarray.BigEndian)
	if bitarray.Equal(a, c) {
		t.Fatal("different seeds produced the same array")
	}
	if _, err := New(nil).RandomP(1000, 0.37, bitarray.BigEndian); err != nil {
		t.Fatal(err)
	}
}

func TestSourceError(t *testing.T) {
	short := io.MultiReader(bytes.NewReader(make([]byte, 100)), iotestErr{})
	g := New(short)
	for _, p := range []float64{0.001, 0.3, 0.5} {
		_, err := g.RandomP(100000, p, bitarray.BigEndian)
		if !errors.Is(err, errSource) {
			t.Errorf("p=%g: got %v", p, err)
		}
	}
	if _, err := g.Binomial(1000, 0.3); !errors.Is(err, errSource) {
		t.Errorf("binomial: got %v", err)
	}
}

var errSource = errors.New("source failed")

type iotestErr struct{}

func (iotestErr) Read([]byte) (int, error) { return 0, errSource }

func TestInvalid(t *testing.T) {
	g := New(Seeded(5))
	for _, p := range []float64{-0.5, 1.0001, math.NaN(), math.Inf(1)} {
		if _, err := g.RandomP(10, p, bitarray.BigEndian); !errors.Is(err, bitarray.ErrInvalidArgument) {
			t.Errorf("p=%g: %v", p, err)
		}
	}
	if _, err := g.RandomP(-1, 0.5, bitarray.BigEndian); !errors.Is(err, bitarray.ErrInvalidArgument) {
		t.Errorf("negative length: %v", err)
	}
}

func TestLogf(t *testing.T) {
	var lines []string
	g := New(Seeded(6))
	g.Logf = func(f string, args ...any) {
		lines = append(lines, fmt.Sprintf(f, args...))
	}
	if _, err := g.RandomP(100000, 0.3, bitarray.LittleEndian); err != nil {
		t.Fatal(err)
	}
	if len(lines) == 0 {
		t.Fatal("no strategy logged")
	}
}

func BenchmarkRandomP(b *testing.B) {
	g := New(Seeded(7))
	for _, p := range []float64{0.001, 0.3, 0.5} {
		b.Run(fmt.Sprint(p), func(b *testing.B) {
			b.SetBytes(1 << 17)
			for i := 0; i < b.N; i++ {
				g.RandomP(1<<20, p, bitarray.BigEndian)
			}
		})
	}
}
