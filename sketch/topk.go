// Package sketch implements the tiered distributional sketch that
// summarizes one tracker's per-commit observations: a trivial counter for
// values at or below the relative-error cutoff, a bounded min-heap of exact
// outliers above it, and a lazily allocated log-binned histogram for
// everything evicted from the outlier heap.
package sketch

import "container/heap"

// TopK is a fixed-capacity min-heap of float64 samples. Once full, pushing
// a larger value evicts and returns the current minimum; pushing a smaller
// or equal value is rejected and returned unchanged. The heap never grows
// past its configured capacity and never allocates after construction.
type TopK struct {
	h topkHeap
	k int
}

// NewTopK constructs a TopK with capacity k. k must be at least 1.
func NewTopK(k int) *TopK {
	if k < 1 {
		k = 1
	}
	return &TopK{
		h: make(topkHeap, 0, k),
		k: k,
	}
}

// Push inserts v. If the heap has spare capacity, v is stored and v itself
// is returned (nothing was evicted). If the heap is full and v is larger
// than the current minimum, the minimum is evicted, v takes its place, and
// the evicted value is returned. If the heap is full and v is not larger
// than the current minimum, v is returned unchanged and the heap is
// unmodified — callers use this to distinguish "stored" from "not stored".
func (t *TopK) Push(v float64) float64 {
	if len(t.h) < t.k {
		heap.Push(&t.h, v)
		return v
	}
	root := t.h[0]
	if v <= root {
		return v
	}
	evicted := t.h[0]
	t.h[0] = v
	heap.Fix(&t.h, 0)
	return evicted
}

// Pop removes and returns the current minimum. It panics if the heap is
// empty, matching container/heap's own contract.
func (t *TopK) Pop() float64 {
	return heap.Pop(&t.h).(float64)
}

// Top returns the current minimum without removing it, and whether the
// heap holds any values.
func (t *TopK) Top() (float64, bool) {
	if len(t.h) == 0 {
		return 0, false
	}
	return t.h[0], true
}

// IsEmpty reports whether the heap holds no values.
func (t *TopK) IsEmpty() bool {
	return len(t.h) == 0
}

// Len reports the number of values currently stored.
func (t *TopK) Len() int {
	return len(t.h)
}

// Capacity reports k, the fixed maximum size.
func (t *TopK) Capacity() int {
	return t.k
}

// Contents returns a stable snapshot of the held values. Order is
// unspecified beyond being a valid heap order; callers that need a sorted
// view should sort the result themselves.
func (t *TopK) Contents() []float64 {
	if len(t.h) == 0 {
		return nil
	}
	out := make([]float64, len(t.h))
	copy(out, t.h)
	return out
}

// Clear empties the heap without releasing its backing array.
func (t *TopK) Clear() {
	t.h = t.h[:0]
}

// topkHeap implements container/heap.Interface over float64, choosing the
// smaller child on ties arbitrarily (heap.Interface does not distinguish).
type topkHeap []float64

func (h topkHeap) Len() int            { return len(h) }
func (h topkHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h topkHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *topkHeap) Push(x any)         { *h = append(*h, x.(float64)) }
func (h *topkHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
