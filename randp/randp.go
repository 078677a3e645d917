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

// Package randp generates random bitarrays in which
// every bit is set independently with probability p.
//
// Rather than drawing one random number per bit,
// RandomP combines up to M uniformly random buffers
// with bitwise AND and OR so that each bit is set with
// a dyadic probability i/K close to p, and corrects
// the difference with a second, much sparser pass.
// Sparse arrays are produced by drawing the population
// from a binomial distribution and then setting that
// many distinct random positions.
package randp

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/SnellerInc/bitarray"
)

const (
	// M is the largest number of random buffers
	// combined into one dyadic approximation.
	M = 8
	// K is the number of dyadic probability steps.
	K = 1 << M
	// SmallP is the probability below which bits
	// are set individually.
	SmallP = 0.01

	// arrays shorter than this are drawn bit by bit
	literalBits = 16
)

// RandomP returns an n-bit array in which every bit
// is set independently with probability p.
func (g *Generator) RandomP(n int, p float64, e bitarray.Endian) (*bitarray.BitArray, error) {
	if n < 0 {
		return nil, fmt.Errorf("randp: negative length %d: %w", n, bitarray.ErrInvalidArgument)
	}
	if !(p >= 0 && p <= 1) {
		return nil, fmt.Errorf("randp: probability %g not in [0, 1]: %w", p, bitarray.ErrInvalidArgument)
	}
	a := g.randomP(n, p, e)
	if err := g.takeErr(); err != nil {
		return nil, err
	}
	return a, nil
}

// RandomK returns an n-bit array with exactly k bits
// set, chosen uniformly among all such arrays.
func (g *Generator) RandomK(n, k int, e bitarray.Endian) (*bitarray.BitArray, error) {
	if n < 0 || k < 0 || k > n {
		return nil, fmt.Errorf("randp: %d set bits out of %d: %w", k, n, bitarray.ErrInvalidArgument)
	}
	a := g.randomK(n, k, e)
	if err := g.takeErr(); err != nil {
		return nil, err
	}
	return a, nil
}

// Binomial returns the number of successes
// in n independent trials with probability p.
func (g *Generator) Binomial(n int, p float64) (int, error) {
	if n < 0 || !(p >= 0 && p <= 1) {
		return 0, fmt.Errorf("randp: binomial(%d, %g): %w", n, p, bitarray.ErrInvalidArgument)
	}
	k := g.binomial(n, p)
	return k, g.takeErr()
}

// half returns an n-bit array of uniformly random bits.
func (g *Generator) half(n int, e bitarray.Endian) *bitarray.BitArray {
	a := bitarray.New(n, e)
	// a is fresh and exclusive, so none of the
	// calls on it in this package can fail
	_ = a.WithExport(func(p []byte) error {
		g.fill(p)
		return nil
	})
	return a
}

// opSeq returns the operations (true for OR, false
// for AND) that combine random halves into bits set
// with probability i/K. The bits of i above its lowest
// set bit are the operations, least significant first.
func opSeq(i int) []bool {
	if i <= 0 || i >= K {
		panic(fmt.Sprintf("randp: opSeq(%d) out of range", i))
	}
	var seq []bool
	for j := bits.TrailingZeros(uint(i)) + 1; j < M; j++ {
		seq = append(seq, (i>>j)&1 == 1)
	}
	return seq
}

func (g *Generator) combineHalf(n int, e bitarray.Endian, seq []bool) *bitarray.BitArray {
	a := g.half(n, e)
	for _, or := range seq {
		if or {
			_ = a.Or(g.half(n, e))
		} else {
			_ = a.And(g.half(n, e))
		}
	}
	return a
}

func (g *Generator) literal(n int, p float64, e bitarray.Endian) *bitarray.BitArray {
	a := bitarray.New(n, e)
	for i := 0; i < n; i++ {
		if g.float64() < p {
			_ = a.Set(i, true)
		}
	}
	return a
}

func (g *Generator) randomP(n int, p float64, e bitarray.Endian) *bitarray.BitArray {
	switch {
	case p == 0:
		return bitarray.New(n, e)
	case p == 0.5:
		return g.half(n, e)
	case p == 1:
		return bitarray.Ones(n, e)
	case n < literalBits:
		g.logf("randp: %d bits with p=%g drawn one by one", n, p)
		return g.literal(n, p, e)
	case p > 0.5:
		a := g.randomP(n, 1-p, e)
		_ = a.Invert()
		return a
	case p < SmallP:
		k := g.binomial(n, p)
		g.logf("randp: %d of %d bits set for p=%g", k, n, p)
		return g.randomK(n, k, e)
	}
	i := int(p * K)
	if p*(K+1) > float64(i+1) {
		i++
	}
	seq := opSeq(i)
	q := float64(i) / K
	a := g.combineHalf(n, e, seq)
	switch {
	case q < p:
		x := (p - q) / (1 - q)
		g.logf("randp: p=%g as %d/%d OR %g", p, i, K, x)
		_ = a.Or(g.randomP(n, x, e))
	case q > p:
		x := p / q
		g.logf("randp: p=%g as %d/%d AND %g", p, i, K, x)
		_ = a.And(g.randomP(n, x, e))
	}
	return a
}

func (g *Generator) randomK(n, k int, e bitarray.Endian) *bitarray.BitArray {
	switch {
	case k == 0:
		return bitarray.New(n, e)
	case k == n:
		return bitarray.Ones(n, e)
	case k > n/2:
		a := g.randomK(n, n-k, e)
		_ = a.Invert()
		return a
	}
	// start from a dyadic approximation when k is
	// large enough for it to save individual draws
	i := 0
	if k >= 16 && k*K >= 3*n {
		p := float64(k) / float64(n)
		p -= (0.2 - 0.4*p) / math.Sqrt(float64(n))
		i = int(p * (K + 1))
	}
	var a *bitarray.BitArray
	diff := -k
	if i < 3 {
		a = bitarray.New(n, e)
	} else {
		a = g.combineHalf(n, e, opSeq(i))
		diff += a.Count(true)
	}
	for ; diff < 0 && g.err == nil; diff++ {
		j := g.intn(n)
		for a.Get(j) && g.err == nil {
			j = g.intn(n)
		}
		_ = a.Set(j, true)
	}
	for ; diff > 0 && g.err == nil; diff-- {
		j := g.intn(n)
		for !a.Get(j) && g.err == nil {
			j = g.intn(n)
		}
		_ = a.Set(j, false)
	}
	return a
}

func (g *Generator) binomial(n int, p float64) int {
	switch {
	case p == 0 || n == 0:
		return 0
	case p == 1:
		return n
	case n == 1:
		if g.float64() < p {
			return 1
		}
		return 0
	case p > 0.5:
		return n - g.binomial(n, 1-p)
	case float64(n)*p < 10:
		return g.geometric(n, p)
	}
	return g.btrs(n, p)
}

// geometric counts successes by summing geometric
// gaps between them; it runs in O(np).
func (g *Generator) geometric(n int, p float64) int {
	c := math.Log2(1 - p)
	if c == 0 {
		return 0
	}
	x, y := 0, 0
	for g.err == nil {
		gap := math.Floor(g.logUniform()/c) + 1
		if gap > float64(n-y) {
			break
		}
		y += int(gap)
		x++
	}
	return x
}

// btrs samples the binomial distribution with
// the transformed rejection method of Hörmann;
// it requires n*p >= 10 and p <= 0.5.
func (g *Generator) btrs(n int, p float64) int {
	fn := float64(n)
	spq := math.Sqrt(fn * p * (1 - p))
	b := 1.15 + 2.53*spq
	a := -0.0873 + 0.0248*b + 0.01*p
	c := fn*p + 0.5
	vr := 0.92 - 4.2/b

	var alpha, lpq, m, h float64
	setup := false
	for g.err == nil {
		u := g.float64() - 0.5
		us := 0.5 - math.Abs(u)
		k := math.Floor((2*a/us+b)*u + c)
		if k < 0 || k > fn {
			continue
		}
		v := g.float64()
		if us >= 0.07 && v <= vr {
			return int(k)
		}
		if !setup {
			alpha = (2.83 + 5.1/b) * spq
			lpq = math.Log(p / (1 - p))
			m = math.Floor((fn + 1) * p)
			h = lgamma(m+1) + lgamma(fn-m+1)
			setup = true
		}
		v *= alpha / (a/(us*us) + b)
		if math.Log(v) <= h-lgamma(k+1)-lgamma(fn-k+1)+(k-m)*lpq {
			return int(k)
		}
	}
	return 0
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
