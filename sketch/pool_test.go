package sketch

import "testing"

type countingMetrics struct {
	counts map[string]uint64
}

func (m *countingMetrics) Add(key string, delta uint64) {
	if m.counts == nil {
		m.counts = make(map[string]uint64)
	}
	m.counts[key] += delta
}

func TestPoolAcquireReturnsZeroedVectors(t *testing.T) {
	pool := NewPool(2, nil)
	v := pool.Acquire()
	if len(v) != maxBinIndex {
		t.Fatalf("len(v) = %d, want %d", len(v), maxBinIndex)
	}
	for _, b := range v {
		if b != 0 {
			t.Fatalf("expected zero-initialized vector, got %v", v)
		}
	}
	if pool.Available() != 1 {
		t.Fatalf("available = %d, want 1", pool.Available())
	}
}

func TestPoolExhaustionAllocatesDirectlyAndReports(t *testing.T) {
	metrics := &countingMetrics{}
	pool := NewPool(1, metrics)
	_ = pool.Acquire()
	if pool.Available() != 0 {
		t.Fatalf("available = %d, want 0", pool.Available())
	}

	v := pool.Acquire()
	if len(v) != maxBinIndex {
		t.Fatalf("direct allocation on exhaustion returned wrong length: %d", len(v))
	}
	if pool.Exhaustions() != 1 {
		t.Fatalf("exhaustions = %d, want 1", pool.Exhaustions())
	}
	if metrics.counts[metricPoolExhausted] != 1 {
		t.Fatalf("metric %s = %d, want 1", metricPoolExhausted, metrics.counts[metricPoolExhausted])
	}
}

func TestPoolZeroSize(t *testing.T) {
	pool := NewPool(0, nil)
	v := pool.Acquire()
	if len(v) != maxBinIndex {
		t.Fatalf("len(v) = %d, want %d", len(v), maxBinIndex)
	}
	if pool.Exhaustions() != 1 {
		t.Fatalf("exhaustions = %d, want 1", pool.Exhaustions())
	}
}
