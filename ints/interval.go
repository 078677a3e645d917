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

// Interval is the half-open range [Start, End).
type Interval struct {
	Start, End int
}

// Intervals is a list of intervals.
// Lists produced by this module are
// ordered and non-overlapping.
type Intervals []Interval

// Len returns the number of integers in [in].
func (in Interval) Len() int {
	if in.End <= in.Start {
		return 0
	}
	return in.End - in.Start
}

// Len returns the total number of integers in [in].
func (in Intervals) Len() int {
	n := 0
	for i := range in {
		n += in[i].Len()
	}
	return n
}

// Complement returns the ordered intervals of
// [0, n) not covered by [in]. [in] must be ordered
// and non-overlapping.
func (in Intervals) Complement(n int) Intervals {
	var out Intervals
	pos := 0
	for i := range in {
		if in[i].Len() == 0 {
			continue
		}
		if in[i].Start > pos {
			out = append(out, Interval{Start: pos, End: in[i].Start})
		}
		if in[i].End > pos {
			pos = in[i].End
		}
	}
	if pos < n {
		out = append(out, Interval{Start: pos, End: n})
	}
	return out
}
