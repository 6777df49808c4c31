// Package tracker implements the per-callable accumulator: it coalesces
// every record() call within one render into a single commit, then feeds
// that commit into the callable's sketch.
package tracker

import "github.com/hollowtick/longtail/sketch"

// Export is the value-semantic snapshot handed to the snapshot emitter for
// one tracker, per spec.md §6's tracker_export shape.
type Export struct {
	Commits   uint64        `json:"commits"`
	Calls     uint64        `json:"calls"`
	TotalTime float64       `json:"total_time"`
	Sketch    sketch.Export `json:"sketch"`
	Dependent bool          `json:"dependent"`
}

// ScriptTracker accumulates one render's worth of time for a single
// instrumented callable, commits at the render boundary, and forwards the
// committed value into its sketch. See spec.md §4.4 for the full contract;
// the commit discipline — at most one commit per (tracker, render) pair —
// is the single most important invariant this type upholds.
type ScriptTracker struct {
	sketch *sketch.TieredSketch

	totalTime float64
	commits   uint64
	calls     uint64

	pendingTime  float64
	pendingCalls uint64
	lastFrame    uint64
	haveFrame    bool

	dependent bool
}

// New constructs a tracker backed by the given sketch. frame is the render
// index at construction time, used to seed lastFrame so the first record()
// call is never mistaken for a frame boundary that needs a (empty) commit.
func New(sk *sketch.TieredSketch, frame uint64, dependent bool) *ScriptTracker {
	return &ScriptTracker{
		sketch:    sk,
		lastFrame: frame,
		haveFrame: true,
		dependent: dependent,
	}
}

// Record adds deltaMS to the pending total for the current render. frame
// is the render index reported by the caller (normally the engine's
// current FrameClock.Index()). If frame differs from the last frame this
// tracker observed, the previous frame's pending total is committed first.
//
// Record performs no allocation and is the critical path spec.md §9 calls
// out: a compare, a handful of adds, and — only on a frame boundary — one
// call into the sketch.
func (t *ScriptTracker) Record(frame uint64, deltaMS float64) {
	if t.haveFrame && frame != t.lastFrame {
		t.commit()
	}
	t.lastFrame = frame
	t.haveFrame = true
	t.pendingTime += deltaMS
	t.pendingCalls++
}

// commit pushes the pending frame total into the sketch (if any calls were
// recorded this frame) and advances the running counters. It is a no-op
// when there is nothing pending, which is what makes calling commit twice
// for the same frame index harmless.
func (t *ScriptTracker) commit() {
	if t.pendingCalls == 0 {
		return
	}
	t.sketch.Push(t.pendingTime)
	t.totalTime += t.pendingTime
	t.calls += t.pendingCalls
	t.commits++
	t.pendingTime = 0
	t.pendingCalls = 0
}

// Export flushes any pending frame and returns the tracker's accumulated
// state. Exporting twice in a row without an intervening Record produces
// identical results, since the flush is idempotent once pending is empty.
func (t *ScriptTracker) Export() Export {
	t.commit()
	return Export{
		Commits:   t.commits,
		Calls:     t.calls,
		TotalTime: t.totalTime,
		Sketch:    t.sketch.Export(),
		Dependent: t.dependent,
	}
}

// ShouldExport reports whether this tracker has recorded at least one
// commit since the last reset, after flushing any pending frame. Callers
// use this to skip emitting trackers that never fired during an encounter.
func (t *ScriptTracker) ShouldExport() bool {
	t.commit()
	return t.commits > 0
}

// Reset zeros every accumulator and reseeds the frame-boundary tracking at
// the given frame index, so a stray Record carrying the just-ended frame's
// index is not mistaken for a new boundary.
func (t *ScriptTracker) Reset(frame uint64) {
	t.sketch.Reset()
	t.totalTime = 0
	t.commits = 0
	t.calls = 0
	t.pendingTime = 0
	t.pendingCalls = 0
	t.lastFrame = frame
	t.haveFrame = true
}

// Dependent reports whether this tracker is flagged as dependent on other
// trackers within the same render (spec.md §4.4).
func (t *ScriptTracker) Dependent() bool {
	return t.dependent
}
