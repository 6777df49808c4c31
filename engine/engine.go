// Package engine is the orchestrator: it owns the frame clock, the
// tracker registry, the encounter lifecycle, and the periodic snapshot
// emission described across spec.md §4.5 and §4.6. It is the one type a
// host-instrumentation layer actually talks to.
package engine

import (
	"errors"
	"time"

	"github.com/hollowtick/longtail/clock"
	"github.com/hollowtick/longtail/encounter"
	"github.com/hollowtick/longtail/registry"
	"github.com/hollowtick/longtail/sketch"
	"github.com/hollowtick/longtail/store"
	"github.com/hollowtick/longtail/telemetry"
	"github.com/hollowtick/longtail/tracker"
)

// renderDelayKey is the distinguished name for the per-render elapsed-time
// tracker spec.md §4.5's on_render hook feeds.
const renderDelayKey = "render_delay"

// Config tunes the engine at construction time.
type Config struct {
	// SketchParams derives the shared bin math for every tracker's sketch.
	// The zero value is invalid; use sketch.DefaultParams() unless the
	// caller has a specific reason to deviate.
	SketchParams sketch.Params
	// PoolSize is P, the number of bin vectors preallocated at start-up.
	PoolSize int
	// RecordingCapacity is N, the retained-recordings cap for the engine's
	// built-in Store, used whenever Sink is nil.
	RecordingCapacity int
	// EngineVersion is stamped onto every Recording.
	EngineVersion string
	// Sink receives every completed encounter's Recording, off the combat
	// hot path, via the deferred ticker. If nil, recordings are appended
	// directly to the engine's own bounded Store (see Engine.Recordings).
	Sink    store.Sink
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	// OnSnapshot, if set, is called with every snapshot as it is built,
	// before encoding. It exists so an optional diagnostics feed (see
	// internal/devfeed) can observe recordings without the engine
	// depending on any transport. It must not block or retain snap's
	// slices beyond the call.
	OnSnapshot func(Snapshot)
}

// DefaultConfig returns the spec's fixed tuning.
func DefaultConfig() Config {
	return Config{
		SketchParams:      sketch.DefaultParams(),
		PoolSize:          100,
		RecordingCapacity: store.DefaultCapacity,
		EngineVersion:     "dev",
		Logger:            telemetry.NopLogger{},
		Metrics:           telemetry.NopMetrics{},
	}
}

// Engine ties the frame clock, tracker registry, encounter lifecycle, and
// recording store together. All methods are intended to be called from
// the host's single render thread, per spec.md §5 — Engine adds no
// locking of its own; the only synchronization is the atomic in
// clock.FrameClock and the small mutexes inside sketch.Pool and
// store.Ticker.
type Engine struct {
	cfg       Config
	clock     *clock.FrameClock
	pool      *sketch.Pool
	registry  *registry.Registry
	encounter *encounter.Machine
	store     *store.Store
	ticker    *store.Ticker

	renderDelay *tracker.ScriptTracker
}

// New constructs an Engine. combat reports whether the host is currently
// in combat, so the deferred ticker can bail out per spec.md §4.6; it may
// be nil, in which case the ticker always proceeds immediately.
func New(cfg Config, combat store.CombatStatus) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = telemetry.NopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NopMetrics{}
	}
	if cfg.SketchParams == (sketch.Params{}) {
		cfg.SketchParams = sketch.DefaultParams()
	}

	fc := clock.New()
	pool := sketch.NewPool(cfg.PoolSize, cfg.Metrics)
	reg := registry.New(cfg.SketchParams, pool, cfg.Metrics)
	renderDelay := tracker.New(sketch.New(cfg.SketchParams, pool, cfg.Metrics), fc.Index(), false)
	_ = reg.Register(renderDelayKey, registry.GroupExternals, renderDelay)

	e := &Engine{
		cfg:         cfg,
		clock:       fc,
		pool:        pool,
		registry:    reg,
		encounter:   encounter.New(),
		store:       store.New(cfg.RecordingCapacity),
		renderDelay: renderDelay,
	}

	sink := cfg.Sink
	if sink == nil {
		sink = store.SinkFunc(e.persistToStore)
	}
	ticker := store.NewTicker(sink, combat)
	ticker.SetLogger(cfg.Logger)
	ticker.SetMetrics(cfg.Metrics)
	e.ticker = ticker

	return e
}

// OnRender advances the frame clock and records the host-reported render
// delta into the distinguished render_delay tracker. elapsedMS must
// already be in milliseconds; spec.md §6 requires the caller to scale if
// the host reports seconds. render_delay is gated by the same
// encounter-active check as every other tracker (spec.md §7
// IgnoredRecord); only the frame clock itself advances unconditionally.
func (e *Engine) OnRender(elapsedMS float64) uint64 {
	frame := e.clock.Advance()
	if e.encounter.Active() {
		e.renderDelay.Record(frame, elapsedMS)
	}
	return frame
}

// Frame returns the current render index without advancing it.
func (e *Engine) Frame() uint64 {
	return e.clock.Index()
}

// RegisterFrameTracker resolves (creating on first call) the tracker for a
// host-frame slot and identity string. The registry always has a tracker
// for a slot once asked, independent of encounter state, so repeated
// SetScript rebinds never lose history mid-encounter.
func (e *Engine) RegisterFrameTracker(slot registry.FrameSlot, identity string, dependent bool) *tracker.ScriptTracker {
	return e.registry.GetFrameTracker(slot, identity, e.clock.Index(), dependent)
}

// RegisterNamedTracker resolves (creating on first call) the tracker for a
// string key, for callables not attached to any host frame.
func (e *Engine) RegisterNamedTracker(key string, dependent bool) *tracker.ScriptTracker {
	return e.registry.GetNamedTracker(key, e.clock.Index(), dependent)
}

// Record is the wrapped-callable hot path: spec.md §6's record(handle,
// delta_ms). It is a no-op outside an active encounter (spec.md §7
// IgnoredRecord) — the gate is read once per call, here, rather than
// inside ScriptTracker, which has no notion of encounter state.
func (e *Engine) Record(t *tracker.ScriptTracker, deltaMS float64) {
	if !e.encounter.Active() {
		return
	}
	t.Record(e.clock.Index(), deltaMS)
}

// ErrNoActiveEncounter is returned by Stop when no encounter is open.
var ErrNoActiveEncounter = errors.New("engine: no active encounter")

// StartRaid opens a raid encounter. See encounter.Machine.StartRaid.
func (e *Engine) StartRaid(payload encounter.RaidPayload) error {
	return e.encounter.StartRaid(payload, time.Now())
}

// StartDungeon opens a mythicplus encounter, preempting an active raid if
// one exists. A preempted raid's snapshot is emitted immediately, exactly
// as if Stop(false) had been called first for that raid.
func (e *Engine) StartDungeon(payload encounter.DungeonPayload) error {
	preempted, err := e.encounter.StartDungeon(payload, time.Now())
	if err != nil {
		return err
	}
	if preempted != nil {
		e.emit(*preempted)
	}
	return nil
}

// StartManual opens a manually-triggered encounter.
func (e *Engine) StartManual() error {
	return e.encounter.StartManual(time.Now())
}

// Stop closes the active encounter (of any kind), builds its snapshot,
// hands it to the deferred ticker, and resets every tracker. success is
// recorded onto the encounter metadata; it is meaningless for manual
// encounters but harmless to set.
func (e *Engine) Stop(success bool) error {
	meta, ok := e.encounter.Stop(success, time.Now())
	if !ok {
		return ErrNoActiveEncounter
	}
	e.emit(meta)
	return nil
}

// emit builds the snapshot for the just-closed encounter, hands it to the
// deferred ticker still unencoded (spec.md §4.6 requires the encode step
// itself to happen off the hot path, not just the write), resets every
// tracker, and finishes the Closing -> Idle transition.
func (e *Engine) emit(meta encounter.Metadata) {
	snap := e.buildSnapshot(meta)
	if e.cfg.OnSnapshot != nil {
		e.cfg.OnSnapshot(snap)
	}
	e.ticker.Enqueue(store.PendingWrite{
		Encounter:     meta,
		EngineVersion: e.cfg.EngineVersion,
		Encode:        func() ([]byte, error) { return EncodeJSON(snap) },
	})
	e.registry.Reset(e.clock.Index())
	e.encounter.Finish()
}

// Tick drives the deferred snapshot ticker. Hosts call this from their own
// ~1Hz timer; the engine never spawns one itself (spec.md §5/§9).
func (e *Engine) Tick() {
	e.ticker.Tick()
}

// Recordings returns the currently retained Recording history, oldest
// first. This reflects the engine's own built-in Store; if Config.Sink
// routes recordings elsewhere instead, this will stay empty.
func (e *Engine) Recordings() []store.Recording {
	return e.store.All()
}

// PoolAvailable reports how many bin vectors remain unborrowed in the
// shared sketch pool, for diagnostics (profilectl status).
func (e *Engine) PoolAvailable() int {
	return e.pool.Available()
}

// ActiveEncounter reports the currently active encounter's metadata, if
// any.
func (e *Engine) ActiveEncounter() (encounter.Metadata, bool) {
	return e.encounter.Current()
}

// TrackerCount reports how many trackers have been registered so far.
func (e *Engine) TrackerCount() int {
	return e.registry.Len()
}

// persistToStore is the default Sink used when Config.Sink is nil: it
// appends straight into the engine's own bounded Store.
func (e *Engine) persistToStore(r store.Recording) error {
	e.store.Append(r)
	return nil
}
