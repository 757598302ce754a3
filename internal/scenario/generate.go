package scenario

import (
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/setomorph/crucible/internal/state"
)

// Options sizes the generated world. Non-positive fields fall back to the
// defaults.
type Options struct {
	CoreUnits        int
	AristocracyUnits int
	PeripheryUnits   int
	GridWidth        int
	GridHeight       int
}

func (o Options) withDefaults() Options {
	if o.CoreUnits <= 0 {
		o.CoreUnits = 2
	}
	if o.AristocracyUnits <= 0 {
		o.AristocracyUnits = 1
	}
	if o.PeripheryUnits <= 0 {
		o.PeripheryUnits = 6
	}
	if o.GridWidth <= 0 {
		o.GridWidth = 3
	}
	if o.GridHeight <= 0 {
		o.GridHeight = 3
	}
	return o
}

// Noise field scales. Capacity and heat sample different regions of the same
// seeded field so they vary independently.
const (
	capacityScale = 0.7
	heatScale     = 1.3
	heatOffset    = 100
	profileScale  = 0.9
	profileOffset = 37
)

// Generate builds a seeded world: a territory grid shaped by noise, a
// rent-collecting core, a wage-fed aristocracy above its own product, and an
// exploited periphery wired through extraction, wage and tribute edges. The
// same seed and options always produce the same snapshot.
func Generate(seed int64, opt Options) (state.Snapshot, error) {
	opt = opt.withDefaults()
	noise := opensimplex.NewNormalized(seed)
	rng := rand.New(rand.NewSource(seed))

	snap := state.Snapshot{Tick: 0, Entities: map[state.EntityID]state.Entity{}}

	zones := make([]state.EntityID, 0, opt.GridWidth*opt.GridHeight)
	for y := 0; y < opt.GridHeight; y++ {
		for x := 0; x < opt.GridWidth; x++ {
			id := zoneID(x, y)
			fx, fy := float64(x), float64(y)
			snap.Entities[id] = state.Entity{
				ID:       id,
				Name:     fmt.Sprintf("Zone %02d-%02d", x, y),
				Kind:     state.KindTerritory,
				Capacity: 2000 + 8000*noise.Eval2(fx*capacityScale, fy*capacityScale),
				Heat:     0.3 * noise.Eval2(fx*heatScale+heatOffset, fy*heatScale+heatOffset),
				Profile:  zoneProfile(noise.Eval2(fx*profileScale+profileOffset, fy*profileScale+profileOffset)),
				Active:   true,
			}
			zones = append(zones, id)
		}
	}
	for y := 0; y < opt.GridHeight; y++ {
		for x := 0; x < opt.GridWidth; x++ {
			if x+1 < opt.GridWidth {
				snap.Relationships = append(snap.Relationships, state.Relationship{
					Kind: state.RelationAdjacency, Source: zoneID(x, y), Target: zoneID(x+1, y), Strength: 1,
				})
			}
			if y+1 < opt.GridHeight {
				snap.Relationships = append(snap.Relationships, state.Relationship{
					Kind: state.RelationAdjacency, Source: zoneID(x, y), Target: zoneID(x, y+1), Strength: 1,
				})
			}
		}
	}

	cores := make([]state.EntityID, 0, opt.CoreUnits)
	for i := 0; i < opt.CoreUnits; i++ {
		id := state.EntityID(fmt.Sprintf("core-%02d", i))
		snap.Entities[id] = state.Entity{
			ID:           id,
			Name:         fmt.Sprintf("Core %02d", i),
			Kind:         state.KindClass,
			Population:   400 + rng.Int63n(400),
			Wealth:       4000 + 4000*rng.Float64(),
			Subsistence:  0.1,
			Ideology:     0.6 + 0.3*rng.Float64(),
			Organization: 0.1 + 0.2*rng.Float64(),
			Repression:   0.05 + 0.1*rng.Float64(),
			Inequality:   0.2 + 0.2*rng.Float64(),
			Active:       true,
		}
		cores = append(cores, id)
	}

	aristocrats := make([]state.EntityID, 0, opt.AristocracyUnits)
	for i := 0; i < opt.AristocracyUnits; i++ {
		id := state.EntityID(fmt.Sprintf("aristocracy-%02d", i))
		snap.Entities[id] = state.Entity{
			ID:           id,
			Name:         fmt.Sprintf("Aristocracy %02d", i),
			Kind:         state.KindClass,
			Population:   600 + rng.Int63n(600),
			Wealth:       1500 + 1500*rng.Float64(),
			Subsistence:  0.1,
			Ideology:     0.2 + 0.3*rng.Float64(),
			Organization: 0.3 + 0.2*rng.Float64(),
			Repression:   0.2 + 0.1*rng.Float64(),
			Inequality:   0.2 + 0.2*rng.Float64(),
			Active:       true,
		}
		aristocrats = append(aristocrats, id)
	}

	periphery := make([]state.EntityID, 0, opt.PeripheryUnits)
	for i := 0; i < opt.PeripheryUnits; i++ {
		id := state.EntityID(fmt.Sprintf("periphery-%02d", i))
		snap.Entities[id] = state.Entity{
			ID:           id,
			Name:         fmt.Sprintf("Periphery %02d", i),
			Kind:         state.KindClass,
			Population:   1500 + rng.Int63n(1500),
			Wealth:       300 + 600*rng.Float64(),
			Subsistence:  0.1,
			Ideology:     -0.4 + 0.5*rng.Float64(),
			Organization: 0.2 + 0.4*rng.Float64(),
			Repression:   0.3 + 0.4*rng.Float64(),
			Inequality:   0.3 + 0.4*rng.Float64(),
			Active:       true,
		}
		periphery = append(periphery, id)
	}

	// Economic wiring. Extraction siphons a share of each periphery unit's
	// product to a core; the partial wage back stays well below the value
	// produced, while aristocracy wages land above it.
	for i, id := range periphery {
		core := cores[i%len(cores)]
		pop := float64(snap.Entities[id].Population)
		snap.Relationships = append(snap.Relationships,
			state.Relationship{Kind: state.RelationExtraction, Source: core, Target: id, Strength: pop * 0.015},
			state.Relationship{Kind: state.RelationWage, Source: core, Target: id, Strength: pop * 0.002},
			state.Relationship{Kind: state.RelationTribute, Source: id, Target: cores[(i+1)%len(cores)], Strength: pop * 0.005},
		)
	}
	for i, id := range aristocrats {
		core := cores[i%len(cores)]
		produced := float64(snap.Entities[id].Population) * 0.1
		snap.Relationships = append(snap.Relationships, state.Relationship{
			Kind: state.RelationWage, Source: core, Target: id,
			Strength: produced * (1.2 + 0.6*rng.Float64()),
		})
	}
	for i := 0; i < len(periphery); i++ {
		for j := i + 1; j < len(periphery); j++ {
			if rng.Float64() >= 0.25 {
				continue
			}
			snap.Relationships = append(snap.Relationships, state.Relationship{
				Kind: state.RelationSolidarity, Source: periphery[i], Target: periphery[j],
				Strength: 0.2 + 0.3*rng.Float64(),
			})
		}
	}

	placed := 0
	for _, group := range [][]state.EntityID{cores, aristocrats, periphery} {
		for _, id := range group {
			snap.Relationships = append(snap.Relationships, state.Relationship{
				Kind: state.RelationOccupancy, Source: id, Target: zones[placed%len(zones)], Strength: 1,
			})
			placed++
		}
	}

	if err := state.Validate(snap); err != nil {
		return state.Snapshot{}, fmt.Errorf("generated world: %w", err)
	}
	return snap, nil
}

func zoneID(x, y int) state.EntityID {
	return state.EntityID(fmt.Sprintf("zone-%02d-%02d", x, y))
}

func zoneProfile(v float64) state.Profile {
	switch {
	case v < 0.33:
		return state.ProfileDormant
	case v < 0.66:
		return state.ProfileGuarded
	default:
		return state.ProfileOvert
	}
}
