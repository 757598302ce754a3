package engine

import (
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/formula"
	"github.com/setomorph/crucible/internal/state"
)

// uprisingStage is where agency enters, last in the tick so it reacts to the
// fully updated state. A unit in rupture with enough organization may act,
// drawn against spark probability × mean tension × organization from the
// run's seeded source. Victory expropriates the unit's extractors and eases
// its repression exposure; suppression shocks it and sets organization back.
// Sorted node order keeps the draw sequence reproducible.
type uprisingStage struct{}

func (uprisingStage) Name() string { return "uprising" }

func (uprisingStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	cfg := svc.Cfg
	for _, e := range g.Nodes() {
		if !e.Active || !e.Class() || e.Population <= 0 {
			continue
		}
		if e.Organization < cfg.UprisingOrganizationFloor {
			continue
		}
		rev, acq := survivalOdds(svc, tc.Tick, e)
		if !formula.Rupture(rev, acq) {
			continue
		}
		tension := meanAntagonisticTension(g, e.ID)
		chance := cfg.SparkProbability * tension * e.Organization
		if chance <= 0 || svc.RNG.Float64() >= chance {
			continue
		}

		intensity := formula.Clamp01(e.Organization * (1 - e.Repression))
		outcome := "suppressed"
		if svc.RNG.Float64() < intensity {
			outcome = "victory"
			for _, edge := range g.EdgesOf(state.RelationExtraction) {
				if edge.Target == e.ID {
					edge.Strength *= 1 - cfg.UprisingExpropriation
				}
			}
			e.Repression = formula.Clamp01(e.Repression - cfg.RepressionShock)
		} else {
			e.Repression = formula.Clamp01(e.Repression + cfg.RepressionShock)
			e.Organization = formula.Clamp01(e.Organization * (1 - cfg.UprisingSetback))
		}

		svc.Bus.Publish(event.KindUprising, event.Fields{
			"entity":    string(e.ID),
			"territory": string(occupiedTerritory(g, e.ID)),
			"intensity": intensity,
			"outcome":   outcome,
		})
		svc.Log.Info("uprising",
			"tick", tc.Tick, "entity", e.ID,
			"intensity", intensity, "outcome", outcome)
	}
	return nil
}

// meanAntagonisticTension averages tension across the edges where the unit
// is the exploited end. No antagonism, no spark.
func meanAntagonisticTension(g *state.Graph, id state.EntityID) float64 {
	sum, n := 0.0, 0
	for _, edge := range g.Edges() {
		if !edge.Kind.Antagonistic() || exploitedEnd(edge) != id {
			continue
		}
		sum += edge.Tension
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// occupiedTerritory returns the first territory the unit occupies in stable
// edge order, or empty when it holds no ground.
func occupiedTerritory(g *state.Graph, id state.EntityID) state.EntityID {
	for _, occ := range g.EdgesOf(state.RelationOccupancy) {
		if occ.Source == id {
			return occ.Target
		}
	}
	return ""
}
