package store

import (
	"path/filepath"
	"testing"

	"github.com/setomorph/crucible/internal/config"
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/state"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "crucible.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunRegistration(t *testing.T) {
	db := openTestDB(t)

	cfg := config.DefaultTunables()
	cfg.ControlCapacity = 6.5
	if err := db.CreateRun("run-1", 42, "test-basin", cfg); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	runs, err := db.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-1" || runs[0].Seed != 42 || runs[0].Scenario != "test-basin" {
		t.Fatalf("Runs() = %+v", runs)
	}
	if runs[0].CreatedAt <= 0 {
		t.Fatalf("CreatedAt = %d, want a positive timestamp", runs[0].CreatedAt)
	}

	got, err := db.Tunables("run-1")
	if err != nil {
		t.Fatalf("Tunables: %v", err)
	}
	if got.ControlCapacity != 6.5 {
		t.Fatalf("restored ControlCapacity = %g, want 6.5", got.ControlCapacity)
	}
	if got.RevolutionThreshold != cfg.RevolutionThreshold {
		t.Fatalf("restored RevolutionThreshold = %g, want %g", got.RevolutionThreshold, cfg.RevolutionThreshold)
	}
}

func TestEventLogRoundTrip(t *testing.T) {
	db := openTestDB(t)
	if err := db.CreateRun("run-1", 1, "", config.DefaultTunables()); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	batch := []event.Event{
		{Tick: 1, Kind: event.KindRentExtracted,
			Payload: event.RentExtractedPayload{Source: "core", Target: "labor", Amount: 30}},
		{Tick: 1, Kind: event.KindWagesPaid,
			Payload: event.WagesPaidPayload{Employer: "core", Worker: "labor", Amount: 20}},
		{Tick: 2, Kind: event.KindAttrition,
			Payload: event.AttritionPayload{Entity: "labor", Deaths: 40, Rate: 0.02, Coverage: 0.9}},
	}
	if err := db.AppendEvents("run-1", batch); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}

	events, err := db.ReadEvents("run-1", 0, 10)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("read %d events, want 3", len(events))
	}
	if events[0].Kind != event.KindRentExtracted || events[1].Kind != event.KindWagesPaid {
		t.Fatalf("tick 1 order = %q, %q", events[0].Kind, events[1].Kind)
	}
	p, ok := events[2].Payload.(event.AttritionPayload)
	if !ok {
		t.Fatalf("payload type %T, want AttritionPayload", events[2].Payload)
	}
	if p.Entity != "labor" || p.Deaths != 40 {
		t.Fatalf("attrition payload = %+v", p)
	}

	justTick2, err := db.ReadEvents("run-1", 2, 2)
	if err != nil {
		t.Fatalf("ReadEvents range: %v", err)
	}
	if len(justTick2) != 1 || justTick2[0].Kind != event.KindAttrition {
		t.Fatalf("tick 2 slice = %+v", justTick2)
	}
}

func TestSnapshotCheckpoint(t *testing.T) {
	db := openTestDB(t)
	if err := db.CreateRun("run-1", 9, "", config.DefaultTunables()); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	if tick, err := db.LatestTick("run-1"); err != nil || tick != 0 {
		t.Fatalf("LatestTick on empty run = %d, %v", tick, err)
	}

	snap := state.Snapshot{
		Tick: 5,
		Entities: map[state.EntityID]state.Entity{
			"labor": {ID: "labor", Name: "Labor", Kind: state.KindClass,
				Population: 1200, Wealth: 640, Subsistence: 0.1, Active: true},
			"zone": {ID: "zone", Kind: state.KindTerritory, Capacity: 4000, Heat: 0.3, Active: true},
		},
		Relationships: []state.Relationship{
			{Kind: state.RelationOccupancy, Source: "labor", Target: "zone", Strength: 1},
		},
		Events: []event.Event{
			{Tick: 4, Kind: event.KindEviction,
				Payload: event.EvictionPayload{Territory: "zone", Occupant: "labor", Heat: 0.92}},
		},
	}
	if err := db.AppendEvents("run-1", snap.Events); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}
	if err := db.SaveSnapshot("run-1", snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	if tick, err := db.LatestTick("run-1"); err != nil || tick != 5 {
		t.Fatalf("LatestTick = %d, %v, want 5", tick, err)
	}

	restored, err := db.LoadSnapshot("run-1", 5)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if restored.Tick != 5 {
		t.Fatalf("restored tick = %d, want 5", restored.Tick)
	}
	labor, ok := restored.Entity("labor")
	if !ok || labor.Population != 1200 || labor.Wealth != 640 {
		t.Fatalf("restored labor = %+v", labor)
	}
	if len(restored.Relationships) != 1 || restored.Relationships[0].Kind != state.RelationOccupancy {
		t.Fatalf("restored relationships = %+v", restored.Relationships)
	}
	if len(restored.Events) != 1 {
		t.Fatalf("restored events = %d, want the log reattached", len(restored.Events))
	}
	if _, ok := restored.Events[0].Payload.(event.EvictionPayload); !ok {
		t.Fatalf("restored payload type %T", restored.Events[0].Payload)
	}
}
