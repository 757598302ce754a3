// Package scenario builds initial worlds: declarative YAML files for
// hand-authored setups, and a seeded procedural generator for larger ones.
// Both produce a validated tick-zero snapshot.
// See design doc Section 8.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/setomorph/crucible/internal/config"
	"github.com/setomorph/crucible/internal/state"
)

// File is the on-disk shape of a scenario. Tunables overlay the defaults;
// fields the file does not mention keep their default values.
type File struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Tunables    config.Tunables `yaml:"tunables"`
	Entities    []EntitySpec    `yaml:"entities"`
	Relations   []RelationSpec  `yaml:"relationships"`
}

// EntitySpec declares one entity. Kind selects which attribute group applies;
// the rest may stay zero.
type EntitySpec struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Kind         string  `yaml:"kind"`
	Population   int64   `yaml:"population"`
	Wealth       float64 `yaml:"wealth"`
	Subsistence  float64 `yaml:"subsistence"`
	Ideology     float64 `yaml:"ideology"`
	Organization float64 `yaml:"organization"`
	Repression   float64 `yaml:"repression"`
	Inequality   float64 `yaml:"inequality"`
	Heat         float64 `yaml:"heat"`
	Profile      string  `yaml:"profile"`
	Capacity     float64 `yaml:"capacity"`
	Inactive     bool    `yaml:"inactive"`
}

// RelationSpec declares one edge by entity IDs.
type RelationSpec struct {
	Kind     string  `yaml:"kind"`
	Source   string  `yaml:"source"`
	Target   string  `yaml:"target"`
	Strength float64 `yaml:"strength"`
	Tension  float64 `yaml:"tension"`
}

// Load reads and parses a scenario file. The returned file's tunables start
// from the defaults with the file's values overlaid.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	f := &File{Tunables: config.DefaultTunables()}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := f.Tunables.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s tunables: %w", path, err)
	}
	return f, nil
}

// Snapshot materializes the declared world at tick zero and validates every
// structural invariant, so a malformed scenario fails before the first tick.
func (f *File) Snapshot() (state.Snapshot, error) {
	snap := state.Snapshot{
		Tick:     0,
		Entities: make(map[state.EntityID]state.Entity, len(f.Entities)),
	}
	for i, spec := range f.Entities {
		if spec.ID == "" {
			return state.Snapshot{}, fmt.Errorf("entity %d: missing id", i)
		}
		id := state.EntityID(spec.ID)
		if _, dup := snap.Entities[id]; dup {
			return state.Snapshot{}, fmt.Errorf("entity %d: duplicate id %q", i, spec.ID)
		}
		kind, err := parseKind(spec.Kind)
		if err != nil {
			return state.Snapshot{}, fmt.Errorf("entity %q: %w", spec.ID, err)
		}
		profile, err := parseProfile(spec.Profile)
		if err != nil {
			return state.Snapshot{}, fmt.Errorf("entity %q: %w", spec.ID, err)
		}
		name := spec.Name
		if name == "" {
			name = spec.ID
		}
		snap.Entities[id] = state.Entity{
			ID:           id,
			Name:         name,
			Kind:         kind,
			Population:   spec.Population,
			Wealth:       spec.Wealth,
			Subsistence:  spec.Subsistence,
			Ideology:     spec.Ideology,
			Organization: spec.Organization,
			Repression:   spec.Repression,
			Inequality:   spec.Inequality,
			Heat:         spec.Heat,
			Profile:      profile,
			Capacity:     spec.Capacity,
			Active:       !spec.Inactive,
		}
	}
	for i, spec := range f.Relations {
		kind, err := parseRelation(spec.Kind)
		if err != nil {
			return state.Snapshot{}, fmt.Errorf("relationship %d: %w", i, err)
		}
		snap.Relationships = append(snap.Relationships, state.Relationship{
			Kind:     kind,
			Source:   state.EntityID(spec.Source),
			Target:   state.EntityID(spec.Target),
			Strength: spec.Strength,
			Tension:  spec.Tension,
		})
	}
	if err := state.Validate(snap); err != nil {
		return state.Snapshot{}, fmt.Errorf("scenario %q: %w", f.Name, err)
	}
	return snap, nil
}

func parseKind(s string) (state.Kind, error) {
	switch s {
	case "class":
		return state.KindClass, nil
	case "territory":
		return state.KindTerritory, nil
	}
	return 0, fmt.Errorf("unknown entity kind %q", s)
}

func parseProfile(s string) (state.Profile, error) {
	switch s {
	case "", "dormant":
		return state.ProfileDormant, nil
	case "guarded":
		return state.ProfileGuarded, nil
	case "overt":
		return state.ProfileOvert, nil
	}
	return 0, fmt.Errorf("unknown territory profile %q", s)
}

func parseRelation(s string) (state.RelationKind, error) {
	switch s {
	case "extraction":
		return state.RelationExtraction, nil
	case "wage":
		return state.RelationWage, nil
	case "tribute":
		return state.RelationTribute, nil
	case "solidarity":
		return state.RelationSolidarity, nil
	case "occupancy":
		return state.RelationOccupancy, nil
	case "adjacency":
		return state.RelationAdjacency, nil
	}
	return 0, fmt.Errorf("unknown relationship kind %q", s)
}
