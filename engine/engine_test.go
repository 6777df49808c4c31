package engine

import (
	"reflect"
	"testing"

	"github.com/hollowtick/longtail/encounter"
	"github.com/hollowtick/longtail/registry"
)

func newTestEngine(recordingCapacity int) *Engine {
	cfg := DefaultConfig()
	cfg.PoolSize = 4
	if recordingCapacity > 0 {
		cfg.RecordingCapacity = recordingCapacity
	}
	return New(cfg, nil)
}

func TestRecordIsNoopOutsideActiveEncounter(t *testing.T) {
	e := newTestEngine(0)
	slot := registry.FrameSlot{Handle: "unit1", ScriptType: "OnUpdate"}
	tr := e.RegisterFrameTracker(slot, "unit1.OnUpdate", false)

	before := tr.Export()
	e.Record(tr, 5.0)
	e.Record(tr, 5.0)
	after := tr.Export()

	if !reflect.DeepEqual(before, after) {
		t.Fatalf("record while idle changed tracker state: before=%+v after=%+v", before, after)
	}
}

func TestEncounterGatingAcrossTenFrames(t *testing.T) {
	e := newTestEngine(0)
	slot := registry.FrameSlot{Handle: "unit1", ScriptType: "OnUpdate"}
	tr := e.RegisterFrameTracker(slot, "unit1.OnUpdate", false)

	// Pre-encounter records must be dropped entirely.
	e.OnRender(1.0)
	e.Record(tr, 3.0)
	e.Record(tr, 3.0)

	if err := e.StartManual(); err != nil {
		t.Fatalf("StartManual: %v", err)
	}

	for i := 0; i < 10; i++ {
		e.OnRender(1.0)
		e.Record(tr, 1.0)
	}

	exp := tr.Export()
	if exp.Commits != 10 {
		t.Fatalf("commits = %d, want 10", exp.Commits)
	}
	if exp.Calls != 10 {
		t.Fatalf("calls = %d, want 10", exp.Calls)
	}
	if diff := exp.TotalTime - 10.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("total_time = %v, want 10.0", exp.TotalTime)
	}
}

func TestRetentionKeepsLastThreeOfFourEncounters(t *testing.T) {
	e := newTestEngine(3)

	for i := 0; i < 4; i++ {
		if err := e.StartManual(); err != nil {
			t.Fatalf("StartManual #%d: %v", i, err)
		}
		if err := e.Stop(true); err != nil {
			t.Fatalf("Stop #%d: %v", i, err)
		}
		e.Tick()
	}

	recordings := e.Recordings()
	if len(recordings) != 3 {
		t.Fatalf("len(recordings) = %d, want 3", len(recordings))
	}
	for _, r := range recordings {
		if r.Encounter.Kind != encounter.KindManual {
			t.Fatalf("unexpected recording kind: %+v", r)
		}
	}
}

func TestStopWithNoActiveEncounterReturnsError(t *testing.T) {
	e := newTestEngine(0)
	if err := e.Stop(true); err != ErrNoActiveEncounter {
		t.Fatalf("Stop: err = %v, want ErrNoActiveEncounter", err)
	}
}

func TestDungeonPreemptionEmitsRaidSnapshotImmediately(t *testing.T) {
	e := newTestEngine(5)
	if err := e.StartRaid(encounter.RaidPayload{ID: "r1", Name: "Test Raid"}); err != nil {
		t.Fatalf("StartRaid: %v", err)
	}

	slot := registry.FrameSlot{Handle: "boss1", ScriptType: "OnTick"}
	tr := e.RegisterFrameTracker(slot, "boss1.OnTick", false)
	e.OnRender(1.0)
	e.Record(tr, 2.0)

	if err := e.StartDungeon(encounter.DungeonPayload{MapID: "d1"}); err != nil {
		t.Fatalf("StartDungeon: %v", err)
	}
	e.Tick()

	recordings := e.Recordings()
	if len(recordings) != 1 {
		t.Fatalf("len(recordings) = %d, want 1", len(recordings))
	}
	if recordings[0].Encounter.Kind != encounter.KindRaid {
		t.Fatalf("preempted recording kind = %v, want raid", recordings[0].Encounter.Kind)
	}
	if recordings[0].Encounter.Success {
		t.Fatalf("preempted raid should be recorded as unsuccessful")
	}

	meta, ok := e.ActiveEncounter()
	if !ok || meta.Kind != encounter.KindMythicPlus {
		t.Fatalf("expected active dungeon after preemption, got %+v ok=%v", meta, ok)
	}

	// The old tracker was reset when the preempted snapshot was built.
	if tr.ShouldExport() {
		t.Fatalf("tracker should have been reset across the preemption boundary")
	}
}

func TestStopDefersSnapshotUntilTick(t *testing.T) {
	e := newTestEngine(5)
	if err := e.StartManual(); err != nil {
		t.Fatalf("StartManual: %v", err)
	}
	if err := e.Stop(true); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Stop must hand the snapshot to the ticker without encoding or
	// persisting it; only Tick may do that work.
	if len(e.Recordings()) != 0 {
		t.Fatalf("Recordings before Tick = %d, want 0 (encode+persist must be deferred)", len(e.Recordings()))
	}

	e.Tick()
	if len(e.Recordings()) != 1 {
		t.Fatalf("Recordings after Tick = %d, want 1", len(e.Recordings()))
	}
}

func TestRenderDelayGatedByEncounterActive(t *testing.T) {
	e := newTestEngine(0)

	e.OnRender(16.6)
	e.OnRender(16.6)
	if exp := e.renderDelay.Export(); exp.Calls != 0 {
		t.Fatalf("render_delay recorded %d calls before any encounter was active, want 0", exp.Calls)
	}

	if err := e.StartManual(); err != nil {
		t.Fatalf("StartManual: %v", err)
	}
	e.OnRender(16.6)
	e.OnRender(16.6)
	if exp := e.renderDelay.Export(); exp.Calls != 2 {
		t.Fatalf("render_delay recorded %d calls during an active encounter, want 2", exp.Calls)
	}

	if err := e.Stop(true); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	e.OnRender(16.6)
	if exp := e.renderDelay.Export(); exp.Calls != 0 {
		t.Fatalf("render_delay recorded %d calls after the encounter closed, want 0 (reset + gated)", exp.Calls)
	}
}

func TestRegisterFrameTrackerIsStableAcrossRebinds(t *testing.T) {
	e := newTestEngine(0)
	slot := registry.FrameSlot{Handle: "unit1", ScriptType: "OnUpdate"}

	first := e.RegisterFrameTracker(slot, "unit1.OnUpdate", false)
	second := e.RegisterFrameTracker(slot, "unit1.OnUpdate", false)
	if first != second {
		t.Fatalf("expected the same tracker instance across repeated registration")
	}
	// render_delay is registered at construction, plus this one slot.
	if e.TrackerCount() != 2 {
		t.Fatalf("TrackerCount = %d, want 2", e.TrackerCount())
	}
}
