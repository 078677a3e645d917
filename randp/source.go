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
	"crypto/rand"
	"encoding/binary"
	"io"
	"math"

	"github.com/SnellerInc/bitarray/ints"

	"golang.org/x/crypto/chacha20"
)

// keystream reads the ChaCha20 keystream.
type keystream struct {
	c *chacha20.Cipher
}

func (k *keystream) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	k.c.XORKeyStream(p, p)
	return len(p), nil
}

// Seeded returns a deterministic random byte source:
// the ChaCha20 keystream keyed by seed.
func Seeded(seed uint64) io.Reader {
	var key [chacha20.KeySize]byte
	var nonce [chacha20.NonceSize]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		panic("randp: " + err.Error())
	}
	return &keystream{c: c}
}

// Generator produces random bitarrays from
// a source of uniformly random bytes.
//
// A Generator is not safe for concurrent use.
type Generator struct {
	// Logf, if non-nil, is called with
	// the strategy chosen for each bitarray.
	Logf func(f string, args ...any)

	src io.Reader
	buf [8]byte
	err error
}

// New returns a Generator reading from src.
// A nil src selects crypto/rand.
func New(src io.Reader) *Generator {
	if src == nil {
		src = rand.Reader
	}
	return &Generator{src: src}
}

func (g *Generator) logf(f string, args ...any) {
	if g.Logf != nil {
		g.Logf(f, args...)
	}
}

// fill reads len(p) random bytes into p. Once the source
// fails, fill zeroes p and the error sticks until
// it is collected with takeErr.
func (g *Generator) fill(p []byte) {
	if g.err == nil {
		g.err = ints.RandomFill(g.src, p)
	}
	if g.err != nil {
		for i := range p {
			p[i] = 0
		}
	}
}

func (g *Generator) takeErr() error {
	err := g.err
	g.err = nil
	return err
}

func (g *Generator) uint64() uint64 {
	g.fill(g.buf[:])
	return binary.LittleEndian.Uint64(g.buf[:])
}

// float64 returns a uniform value in [0, 1).
func (g *Generator) float64() float64 {
	return float64(g.uint64()>>11) / (1 << 53)
}

// intn returns a uniform value in [0, n).
func (g *Generator) intn(n int) int {
	un := uint64(n)
	thresh := -un % un
	for {
		v := g.uint64()
		if v >= thresh || g.err != nil {
			return int(v % un)
		}
	}
}

// Float64 returns a uniform value in [0, 1).
func (g *Generator) Float64() (float64, error) {
	v := g.float64()
	return v, g.takeErr()
}

// Intn returns a uniform value in [0, n).
// It panics if n <= 0.
func (g *Generator) Intn(n int) (int, error) {
	if n <= 0 {
		panic("randp: Intn with n <= 0")
	}
	v := g.intn(n)
	return v, g.takeErr()
}

// logUniform returns log2 of a uniform value in (0, 1].
func (g *Generator) logUniform() float64 {
	return math.Log2(1 - g.float64())
}
