package engine

import (
	"fmt"

	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/formula"
	"github.com/setomorph/crucible/internal/state"
)

// tensionStage accumulates contradiction on antagonistic edges. Tension
// rises with the exploited side's agitation and bleeds off slowly; one event
// marks each upward crossing of the critical threshold. Crossings are
// detected against the edge's value at the top of the stage, so an edge
// oscillating around the threshold within a tick announces at most once.
// See design doc Section 4.9.
type tensionStage struct{}

func (tensionStage) Name() string { return "tension" }

func (tensionStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	cfg := svc.Cfg
	for _, edge := range g.Edges() {
		if !edge.Kind.Antagonistic() {
			continue
		}
		exploitedID := exploitedEnd(edge)
		exploited, ok := g.Node(exploitedID)
		if !ok {
			return fmt.Errorf("%s edge references missing entity %s", edge.Kind, exploitedID)
		}
		if !exploited.Active || exploited.Population <= 0 {
			continue
		}
		coverage, err := formula.CoverageRatio(exploited.Wealth, exploited.Population, exploited.Subsistence)
		if err != nil {
			svc.Log.Warn("coverage domain clamp",
				"tick", tc.Tick, "entity", exploitedID, "error", err)
		}
		agitation := formula.Agitation(coverage, exploited.Inequality)
		before := edge.Tension
		edge.Tension = formula.Clamp01(before + cfg.TensionGrowth*agitation - cfg.TensionRelief)
		if before < cfg.TensionCritical && edge.Tension >= cfg.TensionCritical {
			svc.Bus.Publish(event.KindTensionCritical, event.Fields{
				"source":   string(edge.Source),
				"target":   string(edge.Target),
				"relation": edge.Kind.String(),
				"tension":  edge.Tension,
			})
		}
	}
	return nil
}

// exploitedEnd returns the endpoint that surrenders value on an antagonistic
// edge: the target of extraction, the payer of tribute.
func exploitedEnd(r *state.Relationship) state.EntityID {
	if r.Kind == state.RelationTribute {
		return r.Source
	}
	return r.Target
}
