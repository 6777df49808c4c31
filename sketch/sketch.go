package sketch

// Export is a value-semantic snapshot of a TieredSketch. Bins is nil when
// the sketch never allocated a bin vector (the {NoBins} state).
type Export struct {
	Count        uint64   `json:"count"`
	TrivialCount uint64   `json:"trivial_count"`
	Bins         []uint64 `json:"bins,omitempty"`
	Outliers     []float64 `json:"outliers"`
}

// metricBinOverflow counts observations clamped into the last bin because
// their natural bin index ran past the bin vector's length (spec.md §7
// BinOverflow).
const metricBinOverflow = "sketch_bin_overflow_total"

// TieredSketch summarizes a stream of non-negative observations with three
// modalities: a trivial counter for values at or below Params.TrivialCutoff,
// an exact bounded min-heap of the largest outliers above it, and a
// lazily-allocated log-binned histogram for everything evicted from the
// outlier heap. See spec.md §4.2 for the push/reset/export contract this
// type implements.
type TieredSketch struct {
	params       Params
	pool         *Pool
	metrics      Metrics
	count        uint64
	trivialCount uint64
	bins         []uint64
	outliers     *TopK
}

// New constructs a TieredSketch. pool supplies bin vectors on first
// overflow; it must not be nil. metrics may be nil.
func New(params Params, pool *Pool, metrics Metrics) *TieredSketch {
	return &TieredSketch{
		params:   params,
		pool:     pool,
		metrics:  metrics,
		outliers: NewTopK(params.OutlierCap),
	}
}

// Push records one observation. x must be non-negative; the engine's
// instrumentation layer is responsible for never calling Push with a
// negative delta (spec.md §3's ScriptTracker invariant already enforces
// frame_time >= 0 upstream of this call).
func (s *TieredSketch) Push(x float64) {
	s.count++
	if x <= s.params.TrivialCutoff {
		s.trivialCount++
		return
	}

	wasFull := s.outliers.Len() == s.outliers.Capacity()
	evicted := s.outliers.Push(x)
	if !wasFull {
		// Capacity was not yet reached: x is simply stored, nothing spills
		// into the histogram tier.
		return
	}
	if evicted != x {
		// The heap was full and x displaced the previous minimum; the
		// displaced value is the one that must be approximated.
		s.binIncrement(evicted)
		return
	}
	// The heap was full and x was not larger than the current minimum, so
	// it was never stored; x itself is the one that must be approximated.
	s.binIncrement(x)
}

func (s *TieredSketch) binIncrement(x float64) {
	if s.bins == nil {
		s.bins = s.pool.Acquire()
	}
	idx := s.params.Bin(x)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(s.bins) {
		idx = len(s.bins) - 1
		if s.metrics != nil {
			s.metrics.Add(metricBinOverflow, 1)
		}
	}
	s.bins[idx]++
}

// Reset zeros the counters and clears the outlier heap in place. A held
// bin vector is zeroed in place (its occupied entries only would require
// tracking which indices were touched; zeroing the whole vector is simpler
// and still allocation-free) and kept — it is never returned to the pool
// mid-run.
func (s *TieredSketch) Reset() {
	s.count = 0
	s.trivialCount = 0
	s.outliers.Clear()
	for i := range s.bins {
		s.bins[i] = 0
	}
}

// HasBins reports whether this sketch has transitioned to the {Bins}
// state. The transition is one-way for the life of the sketch.
func (s *TieredSketch) HasBins() bool {
	return s.bins != nil
}

// Count returns the total number of observations pushed since construction
// or the last Reset.
func (s *TieredSketch) Count() uint64 {
	return s.count
}

// Export produces a value-semantic copy of the current state.
func (s *TieredSketch) Export() Export {
	exp := Export{
		Count:        s.count,
		TrivialCount: s.trivialCount,
		Outliers:     s.outliers.Contents(),
	}
	if s.bins != nil {
		bins := make([]uint64, len(s.bins))
		copy(bins, s.bins)
		exp.Bins = bins
	}
	return exp
}
