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

// Package heap implements generic heap functions
// and a priority queue with a stable tie break.
package heap

// PopSlice removes the "smallest" element from x
// based on the provided comparison function
// and updates x appropriately to preserve the
// heap invariant.
func PopSlice[T any](x *[]T, less func(x, y T) bool) T {
	ret := (*x)[0]
	(*x)[0], *x = (*x)[len(*x)-1], (*x)[:len(*x)-1]
	if len(*x) > 0 {
		siftDown((*x), 0, less)
	}
	return ret
}

// PushSlice adds item to x while preserving
// the min-heap invariant determined by the
// provided comparison function.
func PushSlice[T any](x *[]T, item T, less func(x, y T) bool) {
	*x = append(*x, item)
	siftUp(*x, len(*x)-1, less)
}

// OrderSlice shuffles x into min-heap ordering
// according to the provided comparison function.
func OrderSlice[T any](x []T, less func(x, y T) bool) {
	for i := len(x)/2 - 1; i >= 0; i-- {
		siftDown(x, i, less)
	}
}

type entry[T any] struct {
	item T
	seq  uint64
}

// Queue is a min-priority queue. Items that
// compare equal are popped in the order in
// which they were pushed, so the pop order
// is fully determined by the push order.
//
// The zero Queue is not usable; see NewQueue.
type Queue[T any] struct {
	items []entry[T]
	less  func(x, y T) bool
	seq   uint64
}

// NewQueue returns a queue holding items,
// ordered by less. Ties between items are
// broken by their position in items.
func NewQueue[T any](items []T, less func(x, y T) bool) *Queue[T] {
	q := &Queue[T]{
		items: make([]entry[T], len(items)),
		less:  less,
	}
	for i := range items {
		q.items[i] = entry[T]{item: items[i], seq: q.seq}
		q.seq++
	}
	OrderSlice(q.items, q.entryLess)
	return q
}

func (q *Queue[T]) entryLess(x, y entry[T]) bool {
	if q.less(x.item, y.item) {
		return true
	}
	if q.less(y.item, x.item) {
		return false
	}
	return x.seq < y.seq
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int { return len(q.items) }

// Push adds item to the queue.
func (q *Queue[T]) Push(item T) {
	PushSlice(&q.items, entry[T]{item: item, seq: q.seq}, q.entryLess)
	q.seq++
}

// Pop removes and returns the smallest item.
// Pop panics if the queue is empty.
func (q *Queue[T]) Pop() T {
	return PopSlice(&q.items, q.entryLess).item
}

// Peek returns the smallest item without
// removing it. Peek panics if the queue is empty.
func (q *Queue[T]) Peek() T {
	return q.items[0].item
}

func siftUp[T any](x []T, index int, less func(x, y T) bool) {
	for index > 0 {
		p := (index - 1) / 2
		if !less(x[index], x[p]) {
			break
		}
		x[p], x[index] = x[index], x[p]
		index = p
	}
}

func siftDown[T any](x []T, index int, less func(x, y T) bool) {
	for {
		left := (index * 2) + 1
		right := left + 1
		if left >= len(x) {
			break
		}
		c := left
		if len(x) > right && less(x[right], x[left]) {
			c = right
		}
		if !less(x[c], x[index]) {
			break
		}
		x[c], x[index] = x[index], x[c]
		index = c
	}
}
