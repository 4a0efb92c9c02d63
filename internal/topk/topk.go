// Package topk selects the highest scored items without a full sort.
//
// Ordering is score descending. Equal scores keep their input order, so the
// same enumeration order always yields the same ranking.
package topk

import (
	"container/heap"
	"sort"
)

type Item[T any] struct {
	Score float64
	Value T
}

// Select returns the k highest scored items. k <= 0 or k >= len(items)
// returns every item sorted. The input slice is not modified.
func Select[T any](items []Item[T], k int) []Item[T] {
	if k <= 0 || k >= len(items) {
		out := make([]Item[T], len(items))
		copy(out, items)
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
		return out
	}

	h := &minHeap[T]{entries: make([]entry[T], 0, k)}
	for i, it := range items {
		e := entry[T]{item: it, index: i}
		if h.Len() < k {
			heap.Push(h, e)
			continue
		}
		if worse(h.entries[0], e) {
			h.entries[0] = e
			heap.Fix(h, 0)
		}
	}

	out := make([]Item[T], h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(entry[T]).item
	}
	return out
}

// By ranks values by a score function and returns the top k values.
func By[T any](values []T, score func(T) float64, k int) []T {
	items := make([]Item[T], len(values))
	for i, v := range values {
		items[i] = Item[T]{Score: score(v), Value: v}
	}
	ranked := Select(items, k)
	out := make([]T, len(ranked))
	for i, it := range ranked {
		out[i] = it.Value
	}
	return out
}

type entry[T any] struct {
	item  Item[T]
	index int
}

// worse reports whether a ranks below b: lower score, or equal score and
// later in the input.
func worse[T any](a, b entry[T]) bool {
	if a.item.Score != b.item.Score {
		return a.item.Score < b.item.Score
	}
	return a.index > b.index
}

// minHeap keeps the worst retained entry at the root.
type minHeap[T any] struct {
	entries []entry[T]
}

func (h *minHeap[T]) Len() int           { return len(h.entries) }
func (h *minHeap[T]) Less(i, j int) bool { return worse(h.entries[i], h.entries[j]) }
func (h *minHeap[T]) Swap(i, j int)      { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }

func (h *minHeap[T]) Push(x any) {
	h.entries = append(h.entries, x.(entry[T]))
}

func (h *minHeap[T]) Pop() any {
	n := len(h.entries)
	e := h.entries[n-1]
	h.entries = h.entries[:n-1]
	return e
}
