package state

import (
	"fmt"
	"math"
	"slices"
)

// ValidationError reports a snapshot that violates a structural invariant.
// A validation failure at a tick boundary is fatal: it means state
// corruption, not a numeric anomaly.
// See design doc Section 12.
type ValidationError struct {
	Tick   uint64
	Entity EntityID
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("tick %d: entity %s: %s: %s", e.Tick, e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("tick %d: %s: %s", e.Tick, e.Field, e.Reason)
}

// Validate checks every structural invariant on a snapshot. Entities are
// checked in sorted-ID order so the first violation reported is the same on
// every run.
func Validate(s Snapshot) error {
	ids := make([]EntityID, 0, len(s.Entities))
	for id := range s.Entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		e := s.Entities[id]
		if id == "" {
			return &ValidationError{Tick: s.Tick, Field: "id", Reason: "empty entity id"}
		}
		if id != e.ID {
			return &ValidationError{Tick: s.Tick, Entity: id, Field: "id",
				Reason: fmt.Sprintf("map key does not match entity id %q", e.ID)}
		}
		if e.Population < 0 {
			return &ValidationError{Tick: s.Tick, Entity: id, Field: "population",
				Reason: fmt.Sprintf("negative population %d", e.Population)}
		}
		if !finite(e.Wealth) || e.Wealth < 0 {
			return &ValidationError{Tick: s.Tick, Entity: id, Field: "wealth",
				Reason: fmt.Sprintf("wealth %g outside [0, +inf)", e.Wealth)}
		}
		if !finite(e.Ideology) || e.Ideology < -1 || e.Ideology > 1 {
			return &ValidationError{Tick: s.Tick, Entity: id, Field: "ideology",
				Reason: fmt.Sprintf("ideology %g outside [-1, 1]", e.Ideology)}
		}
		if !unit(e.Organization) {
			return &ValidationError{Tick: s.Tick, Entity: id, Field: "organization",
				Reason: fmt.Sprintf("organization %g outside [0, 1]", e.Organization)}
		}
		if !unit(e.Repression) {
			return &ValidationError{Tick: s.Tick, Entity: id, Field: "repression",
				Reason: fmt.Sprintf("repression %g outside [0, 1]", e.Repression)}
		}
		if !unit(e.Inequality) {
			return &ValidationError{Tick: s.Tick, Entity: id, Field: "inequality",
				Reason: fmt.Sprintf("inequality %g outside [0, 1]", e.Inequality)}
		}
		if !unit(e.Heat) {
			return &ValidationError{Tick: s.Tick, Entity: id, Field: "heat",
				Reason: fmt.Sprintf("heat %g outside [0, 1]", e.Heat)}
		}
		if !finite(e.Subsistence) || e.Subsistence < 0 {
			return &ValidationError{Tick: s.Tick, Entity: id, Field: "subsistence",
				Reason: fmt.Sprintf("subsistence %g outside [0, +inf)", e.Subsistence)}
		}
		if !finite(e.Capacity) || e.Capacity < 0 {
			return &ValidationError{Tick: s.Tick, Entity: id, Field: "capacity",
				Reason: fmt.Sprintf("capacity %g outside [0, +inf)", e.Capacity)}
		}
	}

	for i, r := range s.Relationships {
		if _, ok := s.Entities[r.Source]; !ok {
			return &ValidationError{Tick: s.Tick, Entity: r.Source, Field: "relationships",
				Reason: fmt.Sprintf("edge %d references missing source", i)}
		}
		if _, ok := s.Entities[r.Target]; !ok {
			return &ValidationError{Tick: s.Tick, Entity: r.Target, Field: "relationships",
				Reason: fmt.Sprintf("edge %d references missing target", i)}
		}
		if r.Source == r.Target {
			return &ValidationError{Tick: s.Tick, Entity: r.Source, Field: "relationships",
				Reason: fmt.Sprintf("edge %d is a self edge", i)}
		}
		if !finite(r.Strength) || r.Strength < 0 {
			return &ValidationError{Tick: s.Tick, Entity: r.Source, Field: "relationships",
				Reason: fmt.Sprintf("edge %d strength %g outside [0, +inf)", i, r.Strength)}
		}
		if !unit(r.Tension) {
			return &ValidationError{Tick: s.Tick, Entity: r.Source, Field: "relationships",
				Reason: fmt.Sprintf("edge %d tension %g outside [0, 1]", i, r.Tension)}
		}
		if r.Tension > 0 && !r.Kind.Antagonistic() {
			return &ValidationError{Tick: s.Tick, Entity: r.Source, Field: "relationships",
				Reason: fmt.Sprintf("edge %d carries tension on non-antagonistic kind %s", i, r.Kind)}
		}
	}
	return nil
}

// ValidateTransition checks the append-only event law between consecutive
// snapshots: the tick advances by one and the previous event log is an
// unchanged prefix of the next.
func ValidateTransition(prev, next Snapshot) error {
	if next.Tick != prev.Tick+1 {
		return &ValidationError{Tick: next.Tick, Field: "tick",
			Reason: fmt.Sprintf("tick did not advance by one from %d", prev.Tick)}
	}
	if len(next.Events) < len(prev.Events) {
		return &ValidationError{Tick: next.Tick, Field: "events",
			Reason: fmt.Sprintf("event log shrank from %d to %d", len(prev.Events), len(next.Events))}
	}
	for i := range prev.Events {
		if next.Events[i].Kind != prev.Events[i].Kind || next.Events[i].Tick != prev.Events[i].Tick {
			return &ValidationError{Tick: next.Tick, Field: "events",
				Reason: fmt.Sprintf("event log prefix diverged at index %d", i)}
		}
	}
	return nil
}

func unit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
