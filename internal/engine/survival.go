package engine

import (
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/formula"
	"github.com/setomorph/crucible/internal/state"
)

// survivalStage weighs the two survival paths for every active class unit:
// acquiescence (logistic in the margin between per-capita wealth and
// subsistence) against revolution (organization over repression exposure).
// Rupture is announced when revolution first exceeds acquiescence, measured
// against the tick's opening snapshot so a standing rupture is not
// re-announced every tick.
// See design doc Section 4.8.
type survivalStage struct{}

func (survivalStage) Name() string { return "survival" }

func (survivalStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	for _, e := range g.Nodes() {
		if !e.Active || !e.Class() || e.Population <= 0 {
			continue
		}
		rev, acq := survivalOdds(svc, tc.Tick, e)
		if !formula.Rupture(rev, acq) {
			continue
		}
		if prev, ok := tc.Opening.Entity(e.ID); ok && prev.Active && prev.Population > 0 {
			prevRev, prevAcq := openingOdds(prev)
			if formula.Rupture(prevRev, prevAcq) {
				// Standing rupture, announced when it began.
				continue
			}
		}
		svc.Bus.Publish(event.KindRupture, event.Fields{
			"entity":       string(e.ID),
			"revolution":   rev,
			"acquiescence": acq,
		})
		svc.Log.Info("rupture reached",
			"tick", tc.Tick, "entity", e.ID,
			"revolution", rev, "acquiescence", acq)
	}
	return nil
}

// survivalOdds computes the pair on the live graph state, logging domain
// clamps.
func survivalOdds(svc *Services, tick uint64, e *state.Entity) (rev, acq float64) {
	perCapita := e.Wealth / float64(e.Population)
	acq = formula.SurvivalByAcquiescence(perCapita, e.Subsistence)
	rev, err := formula.SurvivalByRevolution(e.Organization, e.Repression)
	if err != nil {
		svc.Log.Warn("revolution odds domain clamp",
			"tick", tick, "entity", e.ID, "error", err)
	}
	return rev, acq
}

// openingOdds recomputes the pair from the opening snapshot. Domain clamps
// there were already logged when that state was live.
func openingOdds(prev state.Entity) (rev, acq float64) {
	perCapita := prev.Wealth / float64(prev.Population)
	acq = formula.SurvivalByAcquiescence(perCapita, prev.Subsistence)
	rev, _ = formula.SurvivalByRevolution(prev.Organization, prev.Repression)
	return rev, acq
}
