// Package encounter implements the encounter lifecycle state machine:
// Idle -> Active(kind) -> Closing -> Idle, driven by host events, per
// spec.md §4.6.
package encounter

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrIgnoredStart is returned when a start event arrives while an
// encounter is already active and the new start cannot preempt it.
// spec.md §7's IgnoredStart is intentionally silent at the engine-event
// level; callers that care can check for this sentinel.
var ErrIgnoredStart = errors.New("encounter: ignored start")

// Kind identifies the three ways an encounter can be opened.
type Kind int

const (
	// KindNone is the zero value; never used for an active encounter.
	KindNone Kind = iota
	// KindRaid is a raid-boss encounter.
	KindRaid
	// KindMythicPlus is a timed-dungeon encounter.
	KindMythicPlus
	// KindManual is an explicit manual start/stop command.
	KindManual
)

func (k Kind) String() string {
	switch k {
	case KindRaid:
		return "raid"
	case KindMythicPlus:
		return "mythicplus"
	case KindManual:
		return "manual"
	default:
		return "none"
	}
}

// MarshalJSON encodes Kind as its string form, matching spec.md §6's wire
// shape rather than the bare int the iota would otherwise produce.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts the string forms String returns. It exists so a
// snapshot round-tripped through JSON (the devfeed consumer, test fixtures)
// recovers the same Kind rather than only being write-only.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "raid":
		*k = KindRaid
	case "mythicplus":
		*k = KindMythicPlus
	case "manual":
		*k = KindManual
	case "none":
		*k = KindNone
	default:
		return fmt.Errorf("encounter: unknown kind %q", s)
	}
	return nil
}

// RaidPayload carries raid-specific metadata.
type RaidPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
	GroupSize  int    `json:"group_size"`
}

// DungeonPayload carries dungeon-specific metadata.
type DungeonPayload struct {
	MapID string `json:"map_id"`
}

// Metadata is the typed payload plus the common fields every encounter
// carries, mirroring spec.md §3's Encounter entity.
type Metadata struct {
	Kind      Kind            `json:"kind"`
	Raid      *RaidPayload    `json:"raid,omitempty"`
	Dungeon   *DungeonPayload `json:"dungeon,omitempty"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Success   bool            `json:"success"`
}

// state is the machine's current phase.
type state int

const (
	stateIdle state = iota
	stateActive
	stateClosing
)

// Machine is the encounter state machine. Exactly one encounter may be
// active at a time; starting a new one while active is ordinarily a
// no-op, except that a dungeon start preempts an active raid (see
// DESIGN.md's Open Question decision #2).
type Machine struct {
	state   state
	current Metadata
}

// New constructs a Machine in the Idle state.
func New() *Machine {
	return &Machine{state: stateIdle}
}

// Active reports whether an encounter is currently open. It is true only
// in the Active phase: once Stop moves the machine to Closing, Active
// reports false, so record() is already gated off while the caller builds
// the snapshot and calls Finish.
func (m *Machine) Active() bool {
	return m.state == stateActive
}

// Current returns the metadata of the currently active encounter, and
// whether one is active.
func (m *Machine) Current() (Metadata, bool) {
	if m.state != stateActive {
		return Metadata{}, false
	}
	return m.current, true
}

// StartRaid opens a raid encounter. It is ignored (ErrIgnoredStart) if any
// encounter is already active, including another raid or a dungeon —
// spec.md §4.6: "an encounter of kind mythicplus suppresses a concurrent
// raid start".
func (m *Machine) StartRaid(payload RaidPayload, now time.Time) error {
	if m.state != stateIdle {
		return ErrIgnoredStart
	}
	m.state = stateActive
	m.current = Metadata{Kind: KindRaid, Raid: &payload, StartTime: now}
	return nil
}

// StartDungeon opens a mythicplus encounter. If a raid is currently
// active, the dungeon preempts it: the active raid is implicitly ended
// (success=false) so its snapshot is still emitted, and the dungeon opens
// in its place. If a dungeon or manual encounter is already active, the
// new start is ignored.
func (m *Machine) StartDungeon(payload DungeonPayload, now time.Time) (preempted *Metadata, err error) {
	switch m.state {
	case stateIdle:
		m.state = stateActive
		m.current = Metadata{Kind: KindMythicPlus, Dungeon: &payload, StartTime: now}
		return nil, nil
	case stateActive:
		if m.current.Kind != KindRaid {
			return nil, ErrIgnoredStart
		}
		ended := m.current
		ended.EndTime = now
		ended.Success = false
		m.current = Metadata{Kind: KindMythicPlus, Dungeon: &payload, StartTime: now}
		return &ended, nil
	default:
		return nil, ErrIgnoredStart
	}
}

// StartManual opens a manually-triggered test encounter. Ignored if any
// encounter is already active.
func (m *Machine) StartManual(now time.Time) error {
	if m.state != stateIdle {
		return ErrIgnoredStart
	}
	m.state = stateActive
	m.current = Metadata{Kind: KindManual, StartTime: now}
	return nil
}

// Stop closes whichever encounter is active, recording success and end
// time, and transitions to Closing so the caller can build and hand off
// the snapshot before calling Finish. Stop on an already-idle machine
// returns (Metadata{}, false).
func (m *Machine) Stop(success bool, now time.Time) (Metadata, bool) {
	if m.state != stateActive {
		return Metadata{}, false
	}
	m.current.EndTime = now
	m.current.Success = success
	m.state = stateClosing
	return m.current, true
}

// Finish completes the Closing -> Idle transition after the snapshot has
// been handed off. Calling Finish while not Closing is a no-op.
func (m *Machine) Finish() {
	if m.state != stateClosing {
		return
	}
	m.state = stateIdle
	m.current = Metadata{}
}
