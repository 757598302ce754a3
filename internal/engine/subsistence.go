package engine

import (
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/formula"
	"github.com/setomorph/crucible/internal/state"
)

// subsistenceStage runs the three mortality phases for every active class
// unit: the subsistence drain on wealth, attrition when post-drain coverage
// falls below the inequality-adjusted threshold, and the terminal extinction
// check. Death counts always floor; a fractional death is nobody dead.
// See design doc Section 4.4.
type subsistenceStage struct{}

func (subsistenceStage) Name() string { return "subsistence" }

func (subsistenceStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	cfg := svc.Cfg
	for _, e := range g.Nodes() {
		if !e.Active || !e.Class() {
			continue
		}
		if e.Population <= 0 {
			// Emptied outside mortality (eliminations); close it out here.
			e.Active = false
			svc.Bus.Publish(event.KindExtinction, event.Fields{
				"entity": string(e.ID),
				"cause":  "emptied",
			})
			continue
		}

		e.Wealth = formula.SubsistenceDrain(e.Wealth, e.Population, e.Subsistence, cfg.SubsistenceMultiplier)

		coverage, err := formula.CoverageRatio(e.Wealth, e.Population, e.Subsistence)
		if err != nil {
			svc.Log.Warn("coverage domain clamp",
				"tick", tc.Tick, "entity", e.ID, "error", err)
		}
		rate := formula.AttritionRate(coverage, e.Inequality)
		if deaths := formula.AttritionDeaths(e.Population, rate); deaths > 0 {
			e.Population -= deaths
			svc.Bus.Publish(event.KindAttrition, event.Fields{
				"entity":   string(e.ID),
				"deaths":   deaths,
				"rate":     rate,
				"coverage": coverage,
			})
		}

		if formula.Extinct(e.Population, e.Wealth, e.Subsistence) {
			cause := "attrition"
			if e.Population > 0 {
				cause = "destitution"
			}
			e.Active = false
			svc.Bus.Publish(event.KindExtinction, event.Fields{
				"entity": string(e.ID),
				"cause":  cause,
			})
		}
	}
	return nil
}
