package engine

import (
	"fmt"
	"math"

	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/formula"
	"github.com/setomorph/crucible/internal/state"
)

// evictionStage clears territories whose heat reached the eviction
// threshold. Each occupant takes a repression shock and is displaced to the
// coolest adjacent territory with room for it, falling back to the coolest
// adjacent regardless of room, or dispersing when the territory has no
// adjacency at all. The cleared territory cools by the post-clearing factor.
// A hot territory with no occupants is left alone.
// See design doc Section 4.9.
type evictionStage struct{}

func (evictionStage) Name() string { return "eviction" }

func (evictionStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	cfg := svc.Cfg
	dispersed := make(map[*state.Relationship]bool)

	for _, terr := range g.Nodes() {
		if !terr.Active || !terr.Territory() || terr.Heat < cfg.EvictionThreshold {
			continue
		}
		cleared := false
		for _, occ := range g.EdgesOf(state.RelationOccupancy) {
			if occ.Target != terr.ID {
				continue
			}
			occupant, ok := g.Node(occ.Source)
			if !ok {
				return fmt.Errorf("occupancy edge references missing occupant %s", occ.Source)
			}
			if !occupant.Active {
				continue
			}
			cleared = true
			svc.Bus.Publish(event.KindEviction, event.Fields{
				"territory": string(terr.ID),
				"occupant":  string(occupant.ID),
				"heat":      terr.Heat,
			})
			occupant.Repression = formula.Clamp01(occupant.Repression + cfg.RepressionShock)

			dest := coolestAdjacent(g, terr.ID, occupant.Population)
			if dest == "" {
				dispersed[occ] = true
			} else {
				occ.Target = dest
			}
			svc.Bus.Publish(event.KindDisplacement, event.Fields{
				"occupant": string(occupant.ID),
				"from":     string(terr.ID),
				"to":       string(dest),
			})
			svc.Log.Info("occupant displaced",
				"tick", tc.Tick, "territory", terr.ID,
				"occupant", occupant.ID, "to", dest)
		}
		if cleared {
			terr.Heat = formula.Clamp01(terr.Heat * cfg.EvictionCooldown)
		}
	}
	if len(dispersed) > 0 {
		g.FilterEdges(func(r *state.Relationship) bool { return !dispersed[r] })
	}
	return nil
}

// coolestAdjacent picks the displacement destination: the adjacent active
// territory with the lowest heat whose capacity fits the population, then
// the coolest regardless of capacity, then nothing. Capacity zero means
// unbounded. Ties break toward the smaller ID so the choice is stable.
func coolestAdjacent(g *state.Graph, from state.EntityID, population int64) state.EntityID {
	var best, fallback state.EntityID
	bestHeat, fallbackHeat := math.MaxFloat64, math.MaxFloat64

	for _, adj := range g.EdgesOf(state.RelationAdjacency) {
		if !adj.Touches(from) {
			continue
		}
		otherID := adj.Other(from)
		other, ok := g.Node(otherID)
		if !ok || !other.Active || !other.Territory() {
			continue
		}
		if other.Heat < fallbackHeat || (other.Heat == fallbackHeat && otherID < fallback) {
			fallback, fallbackHeat = otherID, other.Heat
		}
		if other.Capacity > 0 && float64(population) > other.Capacity {
			continue
		}
		if other.Heat < bestHeat || (other.Heat == bestHeat && otherID < best) {
			best, bestHeat = otherID, other.Heat
		}
	}
	if best != "" {
		return best
	}
	return fallback
}
