package sketch

import (
	"math/rand"
	"sort"
	"testing"
)

func TestTopKStoresLargestK(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		k := 1 + rng.Intn(8)
		n := rng.Intn(40)
		values := make([]float64, n)
		for i := range values {
			values[i] = rng.Float64() * 100
		}

		topk := NewTopK(k)
		for _, v := range values {
			topk.Push(v)
		}

		want := append([]float64(nil), values...)
		sort.Float64s(want)
		if len(want) > k {
			want = want[len(want)-k:]
		}

		got := topk.Contents()
		sort.Float64s(got)

		if len(got) != len(want) {
			t.Fatalf("k=%d n=%d: got %d values, want %d", k, n, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("k=%d n=%d: got %v, want %v", k, n, got, want)
			}
		}
	}
}

func TestTopKPushReturnsEvictedOrRejected(t *testing.T) {
	topk := NewTopK(3)
	for _, v := range []float64{5, 3, 7} {
		if got := topk.Push(v); got != v {
			t.Fatalf("push %v while not full: got %v", v, got)
		}
	}
	// heap now {3,5,7}; pushing 1 (<= root 3) should be rejected, returned
	// unchanged.
	if got := topk.Push(1); got != 1 {
		t.Fatalf("push 1 into full heap with root 3: got %v, want 1 (rejected)", got)
	}
	if topk.Len() != 3 {
		t.Fatalf("rejected push changed size: %d", topk.Len())
	}
	// pushing 10 (> root 3) should evict 3.
	if got := topk.Push(10); got != 3 {
		t.Fatalf("push 10 into full heap with root 3: got %v, want 3 (evicted)", got)
	}
	root, ok := topk.Top()
	if !ok || root != 5 {
		t.Fatalf("after eviction root = %v, ok=%v, want 5", root, ok)
	}
}

func TestTopKClearAndCapacity(t *testing.T) {
	topk := NewTopK(4)
	for _, v := range []float64{1, 2, 3} {
		topk.Push(v)
	}
	if topk.Capacity() != 4 {
		t.Fatalf("capacity = %d, want 4", topk.Capacity())
	}
	topk.Clear()
	if !topk.IsEmpty() {
		t.Fatalf("expected empty heap after Clear")
	}
	if topk.Len() != 0 {
		t.Fatalf("len = %d after Clear, want 0", topk.Len())
	}
}
