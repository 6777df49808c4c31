package engine

import (
	"encoding/json"

	"github.com/hollowtick/longtail/encounter"
	"github.com/hollowtick/longtail/registry"
	"github.com/hollowtick/longtail/sketch"
	"github.com/hollowtick/longtail/tracker"
)

// Snapshot is the serialization-agnostic value shape spec.md §6 defines:
// encounter metadata, the render_delay tracker, the scripts/externals
// tracker maps keyed by identity string, and the sketch params that were
// in effect. It is exported so the schema package can reflect it and so
// callers that want to skip the (out-of-scope) codec entirely can work
// with the value directly.
type Snapshot struct {
	Encounter    encounter.Metadata        `json:"encounter"`
	RenderDelay  tracker.Export            `json:"render_delay"`
	Scripts      map[string]tracker.Export `json:"scripts"`
	Externals    map[string]tracker.Export `json:"externals"`
	SketchParams sketch.Params             `json:"sketch_params"`
}

// buildSnapshot flushes and exports every tracker that has recorded at
// least one commit, grouped per spec.md §6.
func (e *Engine) buildSnapshot(meta encounter.Metadata) Snapshot {
	snap := Snapshot{
		Encounter:    meta,
		RenderDelay:  e.renderDelay.Export(),
		Scripts:      make(map[string]tracker.Export),
		Externals:    make(map[string]tracker.Export),
		SketchParams: e.cfg.SketchParams,
	}

	e.registry.ForEach(func(key string, group registry.Group, t *tracker.ScriptTracker) {
		if key == renderDelayKey {
			return
		}
		if !t.ShouldExport() {
			return
		}
		exp := t.Export()
		switch group {
		case registry.GroupScripts:
			snap.Scripts[key] = exp
		default:
			snap.Externals[key] = exp
		}
	})

	return snap
}

// EncodeJSON is the default stand-in for the out-of-scope serialization +
// compression codec collaborator: plain JSON, no compression. It is the
// only encoder the engine uses: the deferred ticker always runs it, and
// Config.Sink receives its output as Recording.OpaqueBytes. A host that
// wants the Snapshot value itself can observe it through
// Config.OnSnapshot (the schema package documents its exact shape).
func EncodeJSON(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}
