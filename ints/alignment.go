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

package ints

import (
	"golang.org/x/exp/constraints"
)

// ChunkCount returns the number of chunkSize-bit chunks needed to store n bits
func ChunkCount[T constraints.Integer](n, chunkSize T) T {
	return (n + chunkSize - 1) / chunkSize
}

// Clamp returns x limited to [lo, hi].
func Clamp[T constraints.Integer](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Indices resolves the half-open range [start, stop)
// against a sequence of length n: negative values
// count from the end and the result is clamped to [0, n].
func Indices[T constraints.Signed](start, stop, n T) (T, T) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	return Clamp(start, 0, n), Clamp(stop, 0, n)
}
