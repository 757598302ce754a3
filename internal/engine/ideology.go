package engine

import (
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/formula"
	"github.com/setomorph/crucible/internal/state"
)

// ideologyStage applies drift on top of transmission: agitation from the
// tick's deteriorated coverage, scaled by sensitivity, with direction set by
// whether any live solidarity channel touches the unit. Units connected to
// the network radicalize under pressure; isolated units turn reactionary
// under the same pressure.
// See design doc Section 4.6.
type ideologyStage struct{}

func (ideologyStage) Name() string { return "ideology" }

func (ideologyStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	for _, e := range g.Nodes() {
		if !e.Active || !e.Class() || e.Population <= 0 {
			continue
		}
		coverage, err := formula.CoverageRatio(e.Wealth, e.Population, e.Subsistence)
		if err != nil {
			svc.Log.Warn("coverage domain clamp",
				"tick", tc.Tick, "entity", e.ID, "error", err)
		}
		agitation := formula.Agitation(coverage, e.Inequality)
		if agitation == 0 {
			continue
		}
		solidary := hasLiveSolidarity(g, e.ID)
		drift := formula.IdeologyDrift(svc.Cfg.DriftSensitivity, agitation, solidary)
		from := e.Ideology
		e.Ideology = formula.Clamp(from+drift, -1, 1)
		if e.Ideology == from {
			continue
		}
		svc.Bus.Publish(event.KindIdeologyShift, event.Fields{
			"entity":   string(e.ID),
			"from":     from,
			"to":       e.Ideology,
			"drift":    drift,
			"solidary": solidary,
		})
	}
	return nil
}

// hasLiveSolidarity reports a solidarity channel whose far end is still an
// active unit. A channel to a deactivated unit carries nothing.
func hasLiveSolidarity(g *state.Graph, id state.EntityID) bool {
	for _, edge := range g.Touching(id, state.RelationSolidarity) {
		other, ok := g.Node(edge.Other(id))
		if ok && other.Active {
			return true
		}
	}
	return false
}
