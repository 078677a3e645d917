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

// Package huffman builds canonical Huffman codes
// and decodes bit sequences with the resulting
// count/symbol tables.
//
// A canonical code is fully determined by the number
// of codes of each length (the count table) and the
// order of the symbols (the symbol table): symbols are
// sorted by code length, ties keep their ordinal order,
// and consecutive symbols get consecutive code values.
package huffman

import (
	"errors"
	"fmt"
	"sort"

	"github.com/SnellerInc/bitarray"
	"github.com/SnellerInc/bitarray/heap"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MaxCodeLength is the longest supported code.
const MaxCodeLength = 63

var (
	// ErrDegenerateInput is returned when
	// building a code for no symbols.
	ErrDegenerateInput = errors.New("huffman: no symbols")
	// ErrCodeLength is returned when the codes
	// cannot fit the requested maximum length.
	ErrCodeLength = errors.New("huffman: code length limit exceeded")
	// ErrInvalidCode is returned when decoding bits
	// that match no code, or for malformed tables.
	ErrInvalidCode = errors.New("huffman: invalid code")
)

// Frequency pairs a symbol with its frequency.
type Frequency[S comparable] struct {
	Symbol S
	Count  int
}

// Code is a canonical Huffman code.
type Code[S comparable] struct {
	// Count[l] is the number of codes of length l;
	// Count[0] is always 0.
	Count []int
	// Symbols holds the symbols in canonical order.
	Symbols []S

	codes map[S]*bitarray.BitArray
}

// Build returns the canonical code for the given
// frequencies. Symbols with equal code lengths are
// ordered by value. If maxLen is positive, no code
// is longer than maxLen bits.
func Build[S constraints.Ordered](freq map[S]int, maxLen int) (*Code[S], error) {
	syms := maps.Keys(freq)
	slices.Sort(syms)
	list := make([]Frequency[S], len(syms))
	for i, s := range syms {
		list[i] = Frequency[S]{Symbol: s, Count: freq[s]}
	}
	return BuildSlice(list, maxLen)
}

type node struct {
	weight      int
	leaf        int // index into the frequency list, or -1
	left, right *node
}

// BuildSlice returns the canonical code for the given
// frequencies. The position of a symbol in freq is its
// ordinal: it breaks ties between equal weights while
// building the tree and orders symbols with equal code
// lengths. If maxLen is positive, no code is longer
// than maxLen bits.
func BuildSlice[S comparable](freq []Frequency[S], maxLen int) (*Code[S], error) {
	if len(freq) == 0 {
		return nil, ErrDegenerateInput
	}
	if maxLen <= 0 || maxLen > MaxCodeLength {
		maxLen = MaxCodeLength
	}
	seen := make(map[S]struct{}, len(freq))
	for _, f := range freq {
		if f.Count < 0 {
			return nil, fmt.Errorf("huffman: negative frequency %d for %v: %w", f.Count, f.Symbol, bitarray.ErrInvalidArgument)
		}
		if _, ok := seen[f.Symbol]; ok {
			return nil, fmt.Errorf("huffman: duplicate symbol %v: %w", f.Symbol, bitarray.ErrInvalidArgument)
		}
		seen[f.Symbol] = struct{}{}
	}
	if len(freq) > 1 && len(freq) > 1<<min(maxLen, 62) {
		return nil, fmt.Errorf("%w: %d symbols need more than %d bits", ErrCodeLength, len(freq), maxLen)
	}
	lengths := codeLengths(freq)
	if err := limitLengths(lengths, maxLen); err != nil {
		return nil, err
	}
	return canonical(freq, lengths), nil
}

// codeLengths returns the depth of every leaf
// of the Huffman tree for freq.
func codeLengths[S comparable](freq []Frequency[S]) []int {
	lengths := make([]int, len(freq))
	if len(freq) == 1 {
		lengths[0] = 1
		return lengths
	}
	leaves := make([]*node, len(freq))
	for i := range freq {
		leaves[i] = &node{weight: freq[i].Count, leaf: i}
	}
	q := heap.NewQueue(leaves, func(x, y *node) bool {
		return x.weight < y.weight
	})
	for q.Len() > 1 {
		a := q.Pop()
		b := q.Pop()
		q.Push(&node{weight: a.weight + b.weight, leaf: -1, left: a, right: b})
	}
	type item struct {
		n     *node
		depth int
	}
	stack := []item{{q.Pop(), 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.n.leaf >= 0 {
			lengths[it.n.leaf] = it.depth
			continue
		}
		stack = append(stack, item{it.n.left, it.depth + 1}, item{it.n.right, it.depth + 1})
	}
	return lengths
}

// limitLengths shortens lengths so that none exceeds
// maxLen while keeping the code complete. Symbols
// keep their relative order by length.
func limitLengths(lengths []int, maxLen int) error {
	longest := 0
	for _, l := range lengths {
		longest = max(longest, l)
	}
	if longest <= maxLen {
		return nil
	}
	count := make([]int, longest+1)
	for _, l := range lengths {
		count[l]++
	}
	for i := longest; i > maxLen; i-- {
		for count[i] > 0 {
			// move a pair of leaves up: one replaces their
			// parent, the other pairs with a shorter leaf
			j := i - 2
			for j > 0 && count[j] == 0 {
				j--
			}
			if j == 0 {
				return ErrCodeLength
			}
			count[i] -= 2
			count[i-1]++
			count[j+1] += 2
			count[j]--
		}
	}
	order := byLength(lengths)
	l := 1
	for _, i := range order {
		for count[l] == 0 {
			l++
		}
		lengths[i] = l
		count[l]--
	}
	return nil
}

// byLength returns the indices of lengths
// ordered by (length, index).
func byLength(lengths []int) []int {
	order := make([]int, len(lengths))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lengths[order[a]] < lengths[order[b]]
	})
	return order
}

func canonical[S comparable](freq []Frequency[S], lengths []int) *Code[S] {
	order := byLength(lengths)
	longest := lengths[order[len(order)-1]]
	c := &Code[S]{
		Count:   make([]int, longest+1),
		Symbols: make([]S, len(order)),
		codes:   make(map[S]*bitarray.BitArray, len(order)),
	}
	var code uint64
	l := 0
	for k, i := range order {
		for l < lengths[i] {
			code <<= 1
			l++
		}
		c.Count[l]++
		c.Symbols[k] = freq[i].Symbol
		b, _ := bitarray.FromUint64(code, l, bitarray.BigEndian)
		c.codes[freq[i].Symbol] = bitarray.Freeze(b).BitArray()
		code++
	}
	return c
}

// Bits returns the code for s.
// The returned array is read-only.
func (c *Code[S]) Bits(s S) (*bitarray.BitArray, bool) {
	b, ok := c.codes[s]
	return b, ok
}

// Lengths returns the code length of every symbol.
func (c *Code[S]) Lengths() map[S]int {
	m := make(map[S]int, len(c.codes))
	for s, b := range c.codes {
		m[s] = b.Len()
	}
	return m
}

// Encode appends the codes for msg to dst.
// On error dst is left unchanged.
func (c *Code[S]) Encode(dst *bitarray.BitArray, msg []S) error {
	for i := range msg {
		if _, ok := c.codes[msg[i]]; !ok {
			return fmt.Errorf("huffman: symbol %v at position %d has no code: %w", msg[i], i, bitarray.ErrInvalidArgument)
		}
	}
	n := dst.Len()
	for i := range msg {
		if err := dst.Extend(c.codes[msg[i]]); err != nil {
			if n < dst.Len() {
				_ = dst.Resize(n)
			}
			return err
		}
	}
	return nil
}

// Decoder returns a Decoder over src using this code.
func (c *Code[S]) Decoder(src *bitarray.BitArray) *Decoder[S] {
	return &Decoder[S]{src: src, count: c.Count, symbols: c.Symbols}
}
