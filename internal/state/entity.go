// Package state defines the world data model: typed entities joined by a
// typed relationship graph, frozen into immutable snapshots and projected
// into mutable graphs for one tick of transformation.
// See design doc Section 2.
package state

// EntityID is a stable string identifier for an entity. Relationships carry
// IDs, never object references, so the graph has no ownership cycles.
type EntityID string

// Kind separates social/economic units from spatial ones.
type Kind uint8

const (
	KindClass     Kind = iota // social/economic aggregate
	KindTerritory             // spatial unit
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindTerritory:
		return "territory"
	}
	return "unknown"
}

// Profile is a territory's operational posture. It scales how fast state
// attention accumulates from activity there.
type Profile uint8

const (
	ProfileDormant Profile = iota // underground, slow heat
	ProfileGuarded                // semi-open
	ProfileOvert                  // fully visible, fast heat
)

func (p Profile) String() string {
	switch p {
	case ProfileDormant:
		return "dormant"
	case ProfileGuarded:
		return "guarded"
	case ProfileOvert:
		return "overt"
	}
	return "unknown"
}

// Entity is one simulated unit. Class units carry the social and economic
// attributes; territory units additionally carry heat, posture and a
// population capacity. Entities are never deleted: decomposition and
// extinction clear the active flag and the unit stays addressable for
// relationship references and history.
type Entity struct {
	ID   EntityID `json:"id"`
	Name string   `json:"name"`
	Kind Kind     `json:"kind"`

	// Material
	Population  int64   `json:"population"`
	Wealth      float64 `json:"wealth"`
	Subsistence float64 `json:"subsistence"` // per-capita need per tick

	// Social
	Ideology     float64 `json:"ideology"`     // -1.0 (conscious) .. +1.0 (reactionary)
	Organization float64 `json:"organization"` // 0.0–1.0
	Repression   float64 `json:"repression"`   // 0.0–1.0 exposure
	Inequality   float64 `json:"inequality"`   // 0.0–1.0 internal coefficient

	// Territory
	Heat     float64 `json:"heat,omitempty"` // 0.0–1.0 state attention
	Profile  Profile `json:"profile,omitempty"`
	Capacity float64 `json:"capacity,omitempty"` // population ceiling

	Active bool `json:"active"`
}

// Class reports whether the entity is a social/economic unit.
func (e Entity) Class() bool {
	return e.Kind == KindClass
}

// Territory reports whether the entity is a spatial unit.
func (e Entity) Territory() bool {
	return e.Kind == KindTerritory
}
