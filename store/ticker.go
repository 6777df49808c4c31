package store

import (
	"sync"
	"time"

	"github.com/hollowtick/longtail/encounter"
	"github.com/hollowtick/longtail/telemetry"
)

// pendingWriteInterval is the deferred ticker's retry cadence. spec.md §4.6
// calls for "≈1 Hz".
const pendingWriteInterval = time.Second

// CombatStatus reports whether the host is currently in combat, so the
// ticker can bail out rather than breach the host's per-call time budget.
type CombatStatus interface {
	InCombat() bool
}

// CombatStatusFunc adapts a function into CombatStatus.
type CombatStatusFunc func() bool

// InCombat implements CombatStatus.
func (f CombatStatusFunc) InCombat() bool {
	if f == nil {
		return false
	}
	return f()
}

// Sink persists a finished Recording. It corresponds to the serialization
// + compression + storage collaborator spec.md §1 places out of scope;
// the engine only knows it as "something that can fail".
type Sink interface {
	Persist(Recording) error
}

// SinkFunc adapts a function into Sink.
type SinkFunc func(Recording) error

// Persist implements Sink.
func (f SinkFunc) Persist(r Recording) error {
	return f(r)
}

const (
	metricSnapshotDeferred = "store_snapshot_deferred_total"
	metricSnapshotFailed   = "store_snapshot_failed_total"
)

// PendingWrite is a completed encounter waiting on the deferred ticker.
// Encode is deferred deliberately: spec.md §4.6 requires that the
// serialization + compression work itself — not just the storage write —
// happens off the host's hot path, behind the same combat check, since
// "large serialization workloads can breach the host's per-call time
// budget." The engine builds the snapshot value up front (cheap: it is
// already-accumulated counters and slices) but does not encode it until
// Tick decides the write may proceed.
type PendingWrite struct {
	Encounter     encounter.Metadata
	EngineVersion string
	Encode        func() ([]byte, error)
}

// Ticker is the small, explicit scheduler spec.md §9 calls for: one
// pending task per encounter close, re-checked roughly every second,
// cancelling itself before attempting its work so a failing write can
// never retry-loop. It never spawns a goroutine on its own — callers drive
// it from whatever periodic trigger their host already runs (a
// time.Ticker, a game-engine "OnUpdate" hook, etc.) by calling Tick.
type Ticker struct {
	mu      sync.Mutex
	pending *PendingWrite
	combat  CombatStatus
	sink    Sink
	logger  telemetry.Logger
	metrics telemetry.Metrics
}

// NewTicker constructs a Ticker. combat may be nil. The logger and metrics
// sink start out nil (nothing is logged or counted) until SetLogger and
// SetMetrics wire them in.
func NewTicker(sink Sink, combat CombatStatus) *Ticker {
	return &Ticker{
		combat: combat,
		sink:   sink,
	}
}

// SetLogger wires a logger in after construction, for callers that build
// the ticker before they have one ready.
func (t *Ticker) SetLogger(logger telemetry.Logger) {
	t.logger = logger
}

// SetMetrics wires a metrics sink in after construction.
func (t *Ticker) SetMetrics(metrics telemetry.Metrics) {
	t.metrics = metrics
}

// Enqueue stages a recording for deferred encode-and-write-back,
// replacing any still-pending one. spec.md's lifecycle closes one
// encounter before the next can open, so in practice there is never more
// than one pending write at a time; Enqueue still defines last-write-wins
// in case a caller violates that.
func (t *Ticker) Enqueue(p PendingWrite) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = &p
}

// Pending reports whether a recording is waiting to be written.
func (t *Ticker) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

// Tick attempts the pending encode-and-write, if any. Per spec.md §5, the
// ticker cancels itself — clears the pending slot — before attempting the
// work, so a panic or error partway through can never cause a retry loop;
// a failure at either step simply drops that recording; spec.md §7
// SnapshotFailed.
//
// If the host reports combat in progress, Tick reschedules silently
// (leaves the pending recording in place) and returns without attempting
// anything — spec.md §7 SnapshotDeferred. Both the encode step and the
// persist step happen here, behind that same check, since encoding is
// exactly the "large serialization workload" spec.md §4.6 requires be
// kept off the host's hot path.
func (t *Ticker) Tick() {
	t.mu.Lock()
	if t.pending == nil {
		t.mu.Unlock()
		return
	}
	if t.combat != nil && t.combat.InCombat() {
		t.mu.Unlock()
		if t.metrics != nil {
			t.metrics.Add(metricSnapshotDeferred, 1)
		}
		return
	}
	p := *t.pending
	t.pending = nil
	t.mu.Unlock()

	data, err := p.Encode()
	if err != nil {
		if t.metrics != nil {
			t.metrics.Add(metricSnapshotFailed, 1)
		}
		if t.logger != nil {
			t.logger.Printf("longtail: snapshot encode failed, recording dropped: %v", err)
		}
		return
	}

	r := Recording{Encounter: p.Encounter, EngineVersion: p.EngineVersion, OpaqueBytes: data}
	if err := t.sink.Persist(r); err != nil {
		if t.metrics != nil {
			t.metrics.Add(metricSnapshotFailed, 1)
		}
		if t.logger != nil {
			t.logger.Printf("longtail: snapshot write failed, recording dropped: %v", err)
		}
	}
}

// Interval reports the ticker's intended cadence, for callers wiring up
// their own periodic trigger.
func (t *Ticker) Interval() time.Duration {
	return pendingWriteInterval
}
