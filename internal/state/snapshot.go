package state

import (
	"github.com/setomorph/crucible/internal/event"
)

// Snapshot is the immutable world state at one tick: the full entity table,
// every relationship, and the append-only event log up to and including that
// tick. Once materialized a snapshot is never modified; each tick produces a
// new one. Consumers (persistence, API, chronicle) read snapshots and never
// write them.
type Snapshot struct {
	Tick          uint64              `json:"tick"`
	Entities      map[EntityID]Entity `json:"entities"`
	Relationships []Relationship      `json:"relationships"`
	Events        []event.Event       `json:"events"`
}

// Entity returns the entity by ID.
func (s Snapshot) Entity(id EntityID) (Entity, bool) {
	e, ok := s.Entities[id]
	return e, ok
}

// ActiveCount returns the number of active entities.
func (s Snapshot) ActiveCount() int {
	n := 0
	for _, e := range s.Entities {
		if e.Active {
			n++
		}
	}
	return n
}

// EventsSince returns the events appended after the given tick, which for a
// just-materialized snapshot is exactly the current tick's batch.
func (s Snapshot) EventsSince(tick uint64) []event.Event {
	for i, ev := range s.Events {
		if ev.Tick > tick {
			return s.Events[i:]
		}
	}
	return nil
}
