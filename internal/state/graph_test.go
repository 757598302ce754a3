package state

import (
	"maps"
	"slices"
	"testing"
)

func baseSnapshot() Snapshot {
	return Snapshot{
		Tick: 10,
		Entities: map[EntityID]Entity{
			"core": {
				ID: "core", Name: "Imperial Core", Kind: KindClass,
				Population: 1000, Wealth: 5000, Subsistence: 0.01,
				Ideology: 0.8, Organization: 0.6, Repression: 0.1, Inequality: 0.4,
				Active: true,
			},
			"periphery": {
				ID: "periphery", Name: "Periphery Labor", Kind: KindClass,
				Population: 8000, Wealth: 400, Subsistence: 0.01,
				Ideology: -0.2, Organization: 0.3, Repression: 0.7, Inequality: 0.5,
				Active: true,
			},
			"zone-a": {
				ID: "zone-a", Name: "Zone A", Kind: KindTerritory,
				Heat: 0.2, Profile: ProfileGuarded, Capacity: 5000,
				Active: true,
			},
		},
		Relationships: []Relationship{
			{Kind: RelationExtraction, Source: "core", Target: "periphery", Strength: 50, Tension: 0.3},
			{Kind: RelationOccupancy, Source: "periphery", Target: "zone-a", Strength: 1},
		},
	}
}

func TestProjectMaterializeRoundTrip(t *testing.T) {
	snap := baseSnapshot()
	g, err := Project(snap)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	next, err := g.Materialize(snap.Tick + 1)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if next.Tick != 11 {
		t.Errorf("Tick = %d, want 11", next.Tick)
	}
	if !maps.Equal(next.Entities, snap.Entities) {
		t.Errorf("entities changed across an untouched round trip:\n got %+v\nwant %+v", next.Entities, snap.Entities)
	}
	if !slices.Equal(next.Relationships, snap.Relationships) {
		t.Errorf("relationships changed across an untouched round trip:\n got %+v\nwant %+v", next.Relationships, snap.Relationships)
	}
}

func TestGraphMutationLeavesSnapshotAlone(t *testing.T) {
	snap := baseSnapshot()
	g, err := Project(snap)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	n, ok := g.Node("periphery")
	if !ok {
		t.Fatal("Node(periphery) not found")
	}
	n.Wealth = 0
	n.Population = 1
	g.Edges()[0].Tension = 0.9

	if snap.Entities["periphery"].Wealth != 400 {
		t.Errorf("snapshot wealth = %v after graph mutation, want 400", snap.Entities["periphery"].Wealth)
	}
	if snap.Relationships[0].Tension != 0.3 {
		t.Errorf("snapshot tension = %v after graph mutation, want 0.3", snap.Relationships[0].Tension)
	}
}

func TestProjectRejectsDanglingEdge(t *testing.T) {
	snap := baseSnapshot()
	snap.Relationships = append(snap.Relationships,
		Relationship{Kind: RelationWage, Source: "core", Target: "ghost", Strength: 5})
	if _, err := Project(snap); err == nil {
		t.Fatal("Project() accepted an edge referencing a missing entity")
	}
}

func TestNodeIDsSorted(t *testing.T) {
	g, err := Project(baseSnapshot())
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	ids := g.NodeIDs()
	if !slices.IsSorted(ids) {
		t.Errorf("NodeIDs() = %v, want sorted order", ids)
	}
	want := []EntityID{"core", "periphery", "zone-a"}
	if !slices.Equal(ids, want) {
		t.Errorf("NodeIDs() = %v, want %v", ids, want)
	}
}

func TestAddEntityKeepsOrder(t *testing.T) {
	g, err := Project(baseSnapshot())
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if err := g.AddEntity(Entity{ID: "aristocracy", Kind: KindClass, Active: true}); err != nil {
		t.Fatalf("AddEntity() error = %v", err)
	}
	want := []EntityID{"aristocracy", "core", "periphery", "zone-a"}
	if !slices.Equal(g.NodeIDs(), want) {
		t.Errorf("NodeIDs() = %v, want %v", g.NodeIDs(), want)
	}

	if err := g.AddEntity(Entity{ID: "core"}); err == nil {
		t.Error("AddEntity() accepted a duplicate id")
	}
	if err := g.AddEntity(Entity{}); err == nil {
		t.Error("AddEntity() accepted an empty id")
	}
}

func TestAddEdgeChecksEndpoints(t *testing.T) {
	g, err := Project(baseSnapshot())
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	tests := []struct {
		name string
		edge Relationship
		ok   bool
	}{
		{"valid", Relationship{Kind: RelationSolidarity, Source: "core", Target: "periphery", Strength: 0.5}, true},
		{"self edge", Relationship{Kind: RelationSolidarity, Source: "core", Target: "core"}, false},
		{"unknown source", Relationship{Kind: RelationWage, Source: "ghost", Target: "core"}, false},
		{"unknown target", Relationship{Kind: RelationWage, Source: "core", Target: "ghost"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.AddEdge(tt.edge)
			if (err == nil) != tt.ok {
				t.Errorf("AddEdge(%+v) error = %v, want ok=%v", tt.edge, err, tt.ok)
			}
		})
	}
}

func TestFilterEdgesPreservesOrder(t *testing.T) {
	snap := baseSnapshot()
	snap.Relationships = append(snap.Relationships,
		Relationship{Kind: RelationSolidarity, Source: "core", Target: "periphery", Strength: 0.2},
		Relationship{Kind: RelationWage, Source: "core", Target: "periphery", Strength: 10},
	)
	g, err := Project(snap)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	g.FilterEdges(func(r *Relationship) bool { return r.Kind != RelationSolidarity })

	kinds := make([]RelationKind, 0, len(g.Edges()))
	for _, e := range g.Edges() {
		kinds = append(kinds, e.Kind)
	}
	want := []RelationKind{RelationExtraction, RelationOccupancy, RelationWage}
	if !slices.Equal(kinds, want) {
		t.Errorf("kinds after filter = %v, want %v", kinds, want)
	}
}

func TestEdgeQueries(t *testing.T) {
	snap := baseSnapshot()
	snap.Relationships = append(snap.Relationships,
		Relationship{Kind: RelationSolidarity, Source: "core", Target: "periphery", Strength: 0.2})
	g, err := Project(snap)
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if got := len(g.EdgesOf(RelationExtraction)); got != 1 {
		t.Errorf("EdgesOf(extraction) = %d edges, want 1", got)
	}
	if !g.HasEdge("periphery", RelationSolidarity) {
		t.Error("HasEdge(periphery, solidarity) = false, want true")
	}
	if g.HasEdge("zone-a", RelationSolidarity) {
		t.Error("HasEdge(zone-a, solidarity) = true, want false")
	}
	if got := len(g.Touching("periphery", RelationOccupancy)); got != 1 {
		t.Errorf("Touching(periphery, occupancy) = %d edges, want 1", got)
	}
}

func TestRelationshipHelpers(t *testing.T) {
	r := Relationship{Kind: RelationSolidarity, Source: "a", Target: "b"}
	if r.Other("a") != "b" || r.Other("b") != "a" {
		t.Errorf("Other() did not return the opposite endpoint")
	}
	if r.Other("c") != "c" {
		t.Errorf("Other() on a non-endpoint = %q, want the input back", r.Other("c"))
	}
	if !RelationExtraction.Antagonistic() || !RelationTribute.Antagonistic() {
		t.Error("extraction and tribute must be antagonistic")
	}
	if RelationSolidarity.Antagonistic() || RelationWage.Antagonistic() {
		t.Error("solidarity and wage must not be antagonistic")
	}
	if !RelationSolidarity.Bidirectional() || !RelationAdjacency.Bidirectional() {
		t.Error("solidarity and adjacency must be bidirectional")
	}
}
