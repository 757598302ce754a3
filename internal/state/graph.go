package state

import (
	"fmt"
	"slices"
)

// Graph is the mutable within-tick projection of a snapshot: entity copies
// addressable by ID, edge copies in stable append order, and a sorted ID
// index so every stage iterates nodes in the same order on every run.
// Mutations here never touch the source snapshot.
// See design doc Section 2.3.
type Graph struct {
	tick  uint64
	nodes map[EntityID]*Entity
	order []EntityID
	edges []*Relationship
}

// Project builds a mutable graph from a snapshot. It fails when a
// relationship references an entity the snapshot does not hold.
func Project(s Snapshot) (*Graph, error) {
	g := &Graph{
		tick:  s.Tick,
		nodes: make(map[EntityID]*Entity, len(s.Entities)),
		order: make([]EntityID, 0, len(s.Entities)),
		edges: make([]*Relationship, 0, len(s.Relationships)),
	}
	for id, e := range s.Entities {
		ent := e
		g.nodes[id] = &ent
		g.order = append(g.order, id)
	}
	slices.Sort(g.order)
	for i, r := range s.Relationships {
		if _, ok := g.nodes[r.Source]; !ok {
			return nil, &ValidationError{Tick: s.Tick, Entity: r.Source, Field: "relationships",
				Reason: fmt.Sprintf("edge %d references missing source", i)}
		}
		if _, ok := g.nodes[r.Target]; !ok {
			return nil, &ValidationError{Tick: s.Tick, Entity: r.Target, Field: "relationships",
				Reason: fmt.Sprintf("edge %d references missing target", i)}
		}
		edge := r
		g.edges = append(g.edges, &edge)
	}
	return g, nil
}

// Tick returns the tick of the source snapshot.
func (g *Graph) Tick() uint64 {
	return g.tick
}

// Node returns the mutable entity by ID.
func (g *Graph) Node(id EntityID) (*Entity, bool) {
	e, ok := g.nodes[id]
	return e, ok
}

// NodeIDs returns every entity ID in sorted order. Stages iterate this,
// never the underlying map.
func (g *Graph) NodeIDs() []EntityID {
	return g.order
}

// Nodes returns the entities in sorted-ID order.
func (g *Graph) Nodes() []*Entity {
	out := make([]*Entity, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns every edge in stable append order.
func (g *Graph) Edges() []*Relationship {
	return g.edges
}

// EdgesOf returns the edges of one kind, preserving order.
func (g *Graph) EdgesOf(kind RelationKind) []*Relationship {
	var out []*Relationship
	for _, e := range g.edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Touching returns the edges of one kind with id as either endpoint.
func (g *Graph) Touching(id EntityID, kind RelationKind) []*Relationship {
	var out []*Relationship
	for _, e := range g.edges {
		if e.Kind == kind && e.Touches(id) {
			out = append(out, e)
		}
	}
	return out
}

// HasEdge reports whether any edge of the kind touches id.
func (g *Graph) HasEdge(id EntityID, kind RelationKind) bool {
	for _, e := range g.edges {
		if e.Kind == kind && e.Touches(id) {
			return true
		}
	}
	return false
}

// ActiveCount returns the number of active entities.
func (g *Graph) ActiveCount() int {
	n := 0
	for _, id := range g.order {
		if g.nodes[id].Active {
			n++
		}
	}
	return n
}

// AddEntity inserts a new entity, keeping the ID order sorted so stages that
// run after the insertion still iterate deterministically. Duplicate IDs are
// rejected.
func (g *Graph) AddEntity(e Entity) error {
	if e.ID == "" {
		return &ValidationError{Tick: g.tick, Field: "id", Reason: "empty entity id"}
	}
	if _, exists := g.nodes[e.ID]; exists {
		return &ValidationError{Tick: g.tick, Entity: e.ID, Field: "id", Reason: "duplicate entity id"}
	}
	ent := e
	g.nodes[e.ID] = &ent
	i, _ := slices.BinarySearch(g.order, e.ID)
	g.order = slices.Insert(g.order, i, e.ID)
	return nil
}

// AddEdge appends a new edge. Both endpoints must exist and differ.
func (g *Graph) AddEdge(r Relationship) error {
	if r.Source == r.Target {
		return &ValidationError{Tick: g.tick, Entity: r.Source, Field: "relationships", Reason: "self edge"}
	}
	if _, ok := g.nodes[r.Source]; !ok {
		return &ValidationError{Tick: g.tick, Entity: r.Source, Field: "relationships", Reason: "unknown source"}
	}
	if _, ok := g.nodes[r.Target]; !ok {
		return &ValidationError{Tick: g.tick, Entity: r.Target, Field: "relationships", Reason: "unknown target"}
	}
	edge := r
	g.edges = append(g.edges, &edge)
	return nil
}

// FilterEdges drops every edge the keep function rejects, preserving the
// order of the rest.
func (g *Graph) FilterEdges(keep func(*Relationship) bool) {
	kept := g.edges[:0]
	for _, e := range g.edges {
		if keep(e) {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(g.edges); i++ {
		g.edges[i] = nil
	}
	g.edges = kept
}

// Materialize freezes the graph into an immutable snapshot at the given tick
// and validates every structural invariant. The event list is attached by
// the driver afterwards.
func (g *Graph) Materialize(tick uint64) (Snapshot, error) {
	s := Snapshot{
		Tick:          tick,
		Entities:      make(map[EntityID]Entity, len(g.nodes)),
		Relationships: make([]Relationship, 0, len(g.edges)),
	}
	for _, id := range g.order {
		s.Entities[id] = *g.nodes[id]
	}
	for _, e := range g.edges {
		s.Relationships = append(s.Relationships, *e)
	}
	if err := Validate(s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
