package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/setomorph/crucible/internal/config"
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/state"
	"github.com/setomorph/crucible/internal/topology"
)

// worldSnapshot is a small but full world: a rent-collecting core, two
// exploited periphery units tied by solidarity, and two adjacent territories.
func worldSnapshot() state.Snapshot {
	return state.Snapshot{
		Tick: 0,
		Entities: map[state.EntityID]state.Entity{
			"core-capital": {ID: "core-capital", Name: "Core Capital", Kind: state.KindClass,
				Population: 500, Wealth: 5000, Subsistence: 0.1,
				Ideology: 0.8, Organization: 0.2, Repression: 0.1, Inequality: 0.3,
				Active: true},
			"periphery-labor": {ID: "periphery-labor", Name: "Periphery Labor", Kind: state.KindClass,
				Population: 2000, Wealth: 800, Subsistence: 0.1,
				Ideology: -0.2, Organization: 0.5, Repression: 0.6, Inequality: 0.5,
				Active: true},
			"periphery-poor": {ID: "periphery-poor", Name: "Periphery Poor", Kind: state.KindClass,
				Population: 1500, Wealth: 600, Subsistence: 0.1,
				Ideology: -0.3, Organization: 0.45, Repression: 0.5, Inequality: 0.4,
				Active: true},
			"zone-a": {ID: "zone-a", Name: "Zone A", Kind: state.KindTerritory,
				Heat: 0.2, Profile: state.ProfileGuarded, Capacity: 5000, Active: true},
			"zone-b": {ID: "zone-b", Name: "Zone B", Kind: state.KindTerritory,
				Heat: 0.05, Profile: state.ProfileDormant, Capacity: 8000, Active: true},
		},
		Relationships: []state.Relationship{
			{Kind: state.RelationExtraction, Source: "core-capital", Target: "periphery-labor", Strength: 30},
			{Kind: state.RelationWage, Source: "core-capital", Target: "periphery-labor", Strength: 20},
			{Kind: state.RelationTribute, Source: "periphery-poor", Target: "core-capital", Strength: 10},
			{Kind: state.RelationSolidarity, Source: "periphery-labor", Target: "periphery-poor", Strength: 0.4},
			{Kind: state.RelationOccupancy, Source: "periphery-labor", Target: "zone-a", Strength: 1},
			{Kind: state.RelationOccupancy, Source: "periphery-poor", Target: "zone-b", Strength: 1},
			{Kind: state.RelationAdjacency, Source: "zone-a", Target: "zone-b", Strength: 1},
		},
	}
}

func TestDriverRunAdvances(t *testing.T) {
	initial := worldSnapshot()
	d := NewDriver(config.DefaultTunables(), 42, discardLogger())

	var seenTicks []uint64
	d.OnSnapshot = func(s state.Snapshot, rec topology.Record) {
		seenTicks = append(seenTicks, s.Tick)
		if rec.Tick != s.Tick {
			t.Errorf("topology record tick %d for snapshot tick %d", rec.Tick, s.Tick)
		}
	}

	final, err := d.Run(context.Background(), initial, 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final.Tick != 3 {
		t.Fatalf("final tick = %d, want 3", final.Tick)
	}
	if len(seenTicks) != 3 || seenTicks[0] != 1 || seenTicks[2] != 3 {
		t.Fatalf("OnSnapshot ticks = %v, want [1 2 3]", seenTicks)
	}

	if len(final.Events) == 0 {
		t.Fatal("no events after 3 ticks of an economically active world")
	}
	last := uint64(0)
	for i, ev := range final.Events {
		if ev.Tick < last {
			t.Fatalf("event %d tick %d below predecessor %d", i, ev.Tick, last)
		}
		if ev.Tick < 1 || ev.Tick > 3 {
			t.Fatalf("event %d tick %d outside the run", i, ev.Tick)
		}
		last = ev.Tick
	}
	if len(eventsOf(final.Events, event.KindRentExtracted)) == 0 {
		t.Fatal("no rent extraction recorded on a standing extraction edge")
	}

	// the initial snapshot is untouched
	if initial.Tick != 0 || len(initial.Events) != 0 {
		t.Fatalf("initial snapshot mutated: tick %d, %d events", initial.Tick, len(initial.Events))
	}
	if initial.Entities["periphery-labor"].Wealth != 800 {
		t.Fatalf("initial entity mutated: wealth %g", initial.Entities["periphery-labor"].Wealth)
	}
}

func TestDriverCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	initial := worldSnapshot()
	d := NewDriver(config.DefaultTunables(), 42, discardLogger())
	got, err := d.Run(ctx, initial, 100)
	if err != nil {
		t.Fatalf("cancelled run returned error: %v", err)
	}
	if got.Tick != initial.Tick {
		t.Fatalf("cancelled run advanced to tick %d, want %d", got.Tick, initial.Tick)
	}
}

func TestDriverStagedObservationsLandNextTick(t *testing.T) {
	cfg := config.DefaultTunables()
	cfg.ResilienceInterval = 1

	d := NewDriver(cfg, 7, discardLogger())
	s1, err := d.Step(worldSnapshot())
	if err != nil {
		t.Fatalf("Step 1: %v", err)
	}
	// the tick 1 probe is staged, not yet in the log
	if n := len(eventsOf(s1.Events, event.KindResilienceProbe)); n != 0 {
		t.Fatalf("tick 1 log already holds %d probe events, want 0", n)
	}

	s2, err := d.Step(s1)
	if err != nil {
		t.Fatalf("Step 2: %v", err)
	}
	probes := eventsOf(s2.Events, event.KindResilienceProbe)
	if len(probes) == 0 {
		t.Fatal("tick 1 probe never landed in the tick 2 log")
	}
	if probes[0].Tick != 2 {
		t.Fatalf("probe event tick = %d, want 2", probes[0].Tick)
	}
	p := probes[0].Payload.(event.ResilienceProbePayload)
	if p.ObservedTick != 1 {
		t.Fatalf("probe ObservedTick = %d, want 1", p.ObservedTick)
	}
	if !p.Tested {
		t.Fatal("probe on a connected pair reported untested")
	}
}

func TestDriverDeterminism(t *testing.T) {
	runOnce := func() state.Snapshot {
		d := NewDriver(config.DefaultTunables(), 1337, discardLogger())
		final, err := d.Run(context.Background(), worldSnapshot(), 10)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return final
	}

	a := runOnce()
	b := runOnce()
	if !reflect.DeepEqual(a.Entities, b.Entities) {
		t.Fatal("entity tables diverged between same-seed runs")
	}
	if !reflect.DeepEqual(a.Relationships, b.Relationships) {
		t.Fatal("relationship lists diverged between same-seed runs")
	}
	if !reflect.DeepEqual(a.Events, b.Events) {
		t.Fatalf("event logs diverged between same-seed runs: %d vs %d events",
			len(a.Events), len(b.Events))
	}
	if len(a.Events) == 0 {
		t.Fatal("10-tick run produced no events")
	}
}

func TestDriverRejectsCorruptInitial(t *testing.T) {
	bad := worldSnapshot()
	e := bad.Entities["core-capital"]
	e.Wealth = -5
	bad.Entities["core-capital"] = e

	d := NewDriver(config.DefaultTunables(), 1, discardLogger())
	_, err := d.Run(context.Background(), bad, 1)
	if err == nil {
		t.Fatal("corrupt initial snapshot accepted")
	}
	var verr *state.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %v, want a ValidationError", err)
	}
}
