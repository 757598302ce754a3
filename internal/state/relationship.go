package state

// RelationKind types an edge in the relationship graph.
type RelationKind uint8

const (
	RelationExtraction RelationKind = iota // value flows target → source
	RelationWage                           // source pays target per tick
	RelationTribute                        // source pays target per tick
	RelationSolidarity                     // bidirectional consciousness channel
	RelationOccupancy                      // class source occupies territory target
	RelationAdjacency                      // territory ↔ territory, enables displacement
)

func (k RelationKind) String() string {
	switch k {
	case RelationExtraction:
		return "extraction"
	case RelationWage:
		return "wage"
	case RelationTribute:
		return "tribute"
	case RelationSolidarity:
		return "solidarity"
	case RelationOccupancy:
		return "occupancy"
	case RelationAdjacency:
		return "adjacency"
	}
	return "unknown"
}

// Antagonistic reports whether the kind accumulates tension.
func (k RelationKind) Antagonistic() bool {
	return k == RelationExtraction || k == RelationTribute
}

// Bidirectional reports whether the edge reads the same from either end.
func (k RelationKind) Bidirectional() bool {
	return k == RelationSolidarity || k == RelationAdjacency
}

// Relationship joins two entities by ID. Strength is the per-tick value flow
// for economic kinds and the tie strength for solidarity; tension accumulates
// only on antagonistic kinds.
type Relationship struct {
	Kind     RelationKind `json:"kind"`
	Source   EntityID     `json:"source"`
	Target   EntityID     `json:"target"`
	Strength float64      `json:"strength"`
	Tension  float64      `json:"tension,omitempty"` // 0.0–1.0
}

// Touches reports whether id is either endpoint.
func (r Relationship) Touches(id EntityID) bool {
	return r.Source == id || r.Target == id
}

// Other returns the opposite endpoint from id. Returns id itself when id is
// not an endpoint.
func (r Relationship) Other(id EntityID) EntityID {
	switch id {
	case r.Source:
		return r.Target
	case r.Target:
		return r.Source
	}
	return id
}
