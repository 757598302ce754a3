package state

import (
	"math"
	"testing"

	"github.com/setomorph/crucible/internal/event"
)

func TestValidateAcceptsBaseline(t *testing.T) {
	if err := Validate(baseSnapshot()); err != nil {
		t.Fatalf("Validate() on a well-formed snapshot: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"negative population", func(s *Snapshot) {
			e := s.Entities["core"]
			e.Population = -1
			s.Entities["core"] = e
		}},
		{"negative wealth", func(s *Snapshot) {
			e := s.Entities["core"]
			e.Wealth = -0.5
			s.Entities["core"] = e
		}},
		{"NaN wealth", func(s *Snapshot) {
			e := s.Entities["core"]
			e.Wealth = math.NaN()
			s.Entities["core"] = e
		}},
		{"ideology out of range", func(s *Snapshot) {
			e := s.Entities["core"]
			e.Ideology = 1.5
			s.Entities["core"] = e
		}},
		{"organization out of range", func(s *Snapshot) {
			e := s.Entities["periphery"]
			e.Organization = -0.1
			s.Entities["periphery"] = e
		}},
		{"repression out of range", func(s *Snapshot) {
			e := s.Entities["periphery"]
			e.Repression = 2
			s.Entities["periphery"] = e
		}},
		{"heat out of range", func(s *Snapshot) {
			e := s.Entities["zone-a"]
			e.Heat = 1.2
			s.Entities["zone-a"] = e
		}},
		{"negative subsistence", func(s *Snapshot) {
			e := s.Entities["core"]
			e.Subsistence = -0.01
			s.Entities["core"] = e
		}},
		{"mismatched map key", func(s *Snapshot) {
			e := s.Entities["core"]
			e.ID = "someone-else"
			s.Entities["core"] = e
		}},
		{"dangling edge", func(s *Snapshot) {
			s.Relationships = append(s.Relationships,
				Relationship{Kind: RelationWage, Source: "core", Target: "ghost"})
		}},
		{"self edge", func(s *Snapshot) {
			s.Relationships = append(s.Relationships,
				Relationship{Kind: RelationSolidarity, Source: "core", Target: "core"})
		}},
		{"negative strength", func(s *Snapshot) {
			s.Relationships[0].Strength = -1
		}},
		{"tension out of range", func(s *Snapshot) {
			s.Relationships[0].Tension = 1.5
		}},
		{"tension on non-antagonistic edge", func(s *Snapshot) {
			s.Relationships[1].Tension = 0.4
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := baseSnapshot()
			tt.mutate(&snap)
			if err := Validate(snap); err == nil {
				t.Error("Validate() accepted an invalid snapshot")
			}
		})
	}
}

func TestValidateTransition(t *testing.T) {
	prev := baseSnapshot()
	prev.Events = []event.Event{
		{Tick: 9, Kind: event.KindRentExtracted, Payload: event.RentExtractedPayload{Source: "core", Target: "periphery", Amount: 50}},
		{Tick: 10, Kind: event.KindAttrition, Payload: event.AttritionPayload{Entity: "periphery", Deaths: 12}},
	}

	next := baseSnapshot()
	next.Tick = prev.Tick + 1
	next.Events = append(append([]event.Event{}, prev.Events...),
		event.Event{Tick: 11, Kind: event.KindTributePaid, Payload: event.TributePaidPayload{Payer: "periphery", Recipient: "core", Amount: 3}})

	if err := ValidateTransition(prev, next); err != nil {
		t.Fatalf("ValidateTransition() on a clean append: %v", err)
	}

	t.Run("tick must advance by one", func(t *testing.T) {
		bad := next
		bad.Tick = prev.Tick + 2
		if err := ValidateTransition(prev, bad); err == nil {
			t.Error("accepted a tick jump")
		}
	})
	t.Run("log must not shrink", func(t *testing.T) {
		bad := next
		bad.Events = bad.Events[:1]
		if err := ValidateTransition(prev, bad); err == nil {
			t.Error("accepted a shrunken event log")
		}
	})
	t.Run("prefix must not change", func(t *testing.T) {
		bad := next
		bad.Events = append([]event.Event{}, next.Events...)
		bad.Events[0] = event.Event{Tick: 9, Kind: event.KindUprising}
		if err := ValidateTransition(prev, bad); err == nil {
			t.Error("accepted a rewritten event prefix")
		}
	})
}
