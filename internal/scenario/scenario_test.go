package scenario

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/setomorph/crucible/internal/config"
	"github.com/setomorph/crucible/internal/state"
)

const basinYAML = `name: test-basin
description: Two classes on one zone.
tunables:
  control_capacity: 6.0
  spark_probability: 0.5
entities:
  - id: boss
    kind: class
    population: 100
    wealth: 1000
    subsistence: 0.1
    ideology: 0.7
  - id: crew
    name: The Crew
    kind: class
    population: 800
    wealth: 300
    subsistence: 0.1
    organization: 0.4
    repression: 0.5
  - id: docks
    kind: territory
    profile: guarded
    capacity: 2000
    heat: 0.1
relationships:
  - kind: extraction
    source: boss
    target: crew
    strength: 12
  - kind: occupancy
    source: crew
    target: docks
    strength: 1
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestLoadOverlaysTunables(t *testing.T) {
	f, err := Load(writeScenario(t, basinYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Name != "test-basin" {
		t.Fatalf("Name = %q, want test-basin", f.Name)
	}
	if f.Tunables.ControlCapacity != 6.0 || f.Tunables.SparkProbability != 0.5 {
		t.Fatalf("overlaid tunables = %+v", f.Tunables)
	}
	if f.Tunables.RevolutionThreshold != config.DefaultTunables().RevolutionThreshold {
		t.Fatalf("unmentioned tunable lost its default: %g", f.Tunables.RevolutionThreshold)
	}
}

func TestSnapshotFromFile(t *testing.T) {
	f, err := Load(writeScenario(t, basinYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap, err := f.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Tick != 0 {
		t.Fatalf("tick = %d, want 0", snap.Tick)
	}

	boss := snap.Entities["boss"]
	if boss.Name != "boss" {
		t.Fatalf("boss name = %q, want the id as fallback", boss.Name)
	}
	if !boss.Class() || !boss.Active {
		t.Fatalf("boss = %+v, want an active class unit", boss)
	}
	crew := snap.Entities["crew"]
	if crew.Name != "The Crew" || crew.Population != 800 {
		t.Fatalf("crew = %+v", crew)
	}
	docks := snap.Entities["docks"]
	if !docks.Territory() || docks.Profile != state.ProfileGuarded || docks.Capacity != 2000 {
		t.Fatalf("docks = %+v", docks)
	}

	if len(snap.Relationships) != 2 {
		t.Fatalf("relationships = %d, want 2", len(snap.Relationships))
	}
	if snap.Relationships[0].Kind != state.RelationExtraction || snap.Relationships[0].Strength != 12 {
		t.Fatalf("first edge = %+v", snap.Relationships[0])
	}
	if snap.Relationships[1].Kind != state.RelationOccupancy {
		t.Fatalf("second edge = %+v", snap.Relationships[1])
	}
}

func TestLoadRejectsBadTunables(t *testing.T) {
	src := "name: broken\ntunables:\n  eviction_threshold: 0\n"
	if _, err := Load(writeScenario(t, src)); err == nil {
		t.Fatal("Load accepted tunables the pipeline cannot run with")
	}
}

func TestSnapshotRejections(t *testing.T) {
	class := func(id string) EntitySpec {
		return EntitySpec{ID: id, Kind: "class", Population: 10, Wealth: 10, Subsistence: 0.1}
	}
	tests := []struct {
		name string
		file File
	}{
		{"duplicate id", File{Entities: []EntitySpec{class("a"), class("a")}}},
		{"missing id", File{Entities: []EntitySpec{{Kind: "class"}}}},
		{"unknown kind", File{Entities: []EntitySpec{{ID: "a", Kind: "gang"}}}},
		{"unknown profile", File{Entities: []EntitySpec{{ID: "a", Kind: "territory", Profile: "loud"}}}},
		{"unknown relation", File{
			Entities:  []EntitySpec{class("a"), class("b")},
			Relations: []RelationSpec{{Kind: "friendship", Source: "a", Target: "b"}},
		}},
		{"edge to missing entity", File{
			Entities:  []EntitySpec{class("a")},
			Relations: []RelationSpec{{Kind: "wage", Source: "a", Target: "ghost", Strength: 1}},
		}},
		{"invariant violation", File{Entities: []EntitySpec{
			{ID: "a", Kind: "class", Population: 10, Wealth: -1, Subsistence: 0.1},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.file.Snapshot(); err == nil {
				t.Fatal("Snapshot() accepted a malformed scenario")
			}
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(99, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(99, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed generated different worlds")
	}
	c, err := Generate(100, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reflect.DeepEqual(a.Entities, c.Entities) {
		t.Fatal("different seeds generated identical worlds")
	}
}

func TestGenerateAlwaysValid(t *testing.T) {
	for _, seed := range []int64{0, 1, 42, -3, 1 << 40} {
		snap, err := Generate(seed, Options{})
		if err != nil {
			t.Fatalf("Generate(%d): %v", seed, err)
		}
		if err := state.Validate(snap); err != nil {
			t.Fatalf("seed %d produced an invalid world: %v", seed, err)
		}
	}
}

func TestGenerateStructure(t *testing.T) {
	snap, err := Generate(7, Options{CoreUnits: 2, AristocracyUnits: 1, PeripheryUnits: 6, GridWidth: 3, GridHeight: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := state.Validate(snap); err != nil {
		t.Fatalf("generated world invalid: %v", err)
	}

	classes, territories := 0, 0
	for _, e := range snap.Entities {
		switch {
		case e.Class():
			classes++
		case e.Territory():
			territories++
		}
		if !e.Active {
			t.Fatalf("generated entity %s inactive", e.ID)
		}
	}
	if territories != 9 {
		t.Fatalf("territories = %d, want 9", territories)
	}
	if classes != 9 { // 2 core + 1 aristocracy + 6 periphery
		t.Fatalf("class units = %d, want 9", classes)
	}

	count := func(k state.RelationKind) int {
		n := 0
		for _, r := range snap.Relationships {
			if r.Kind == k {
				n++
			}
		}
		return n
	}
	if n := count(state.RelationAdjacency); n != 12 {
		t.Fatalf("adjacency edges = %d, want 12 on a 3x3 grid", n)
	}
	if n := count(state.RelationOccupancy); n != 9 {
		t.Fatalf("occupancy edges = %d, want one per class unit", n)
	}
	if n := count(state.RelationExtraction); n != 6 {
		t.Fatalf("extraction edges = %d, want one per periphery unit", n)
	}
	// partial wages to the periphery plus aristocracy wages above product
	if n := count(state.RelationWage); n != 7 {
		t.Fatalf("wage edges = %d, want 7", n)
	}
	if n := count(state.RelationTribute); n != 6 {
		t.Fatalf("tribute edges = %d, want 6", n)
	}

	// the aristocracy wage lands above the unit's own product
	var aristWage, aristProduct float64
	for _, r := range snap.Relationships {
		if r.Kind == state.RelationWage && r.Target == "aristocracy-00" {
			aristWage = r.Strength
		}
	}
	aristProduct = float64(snap.Entities["aristocracy-00"].Population) * 0.1
	if aristWage <= aristProduct {
		t.Fatalf("aristocracy wage %g not above product %g", aristWage, aristProduct)
	}
}
