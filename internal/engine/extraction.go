package engine

import (
	"fmt"
	"math"

	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/formula"
	"github.com/setomorph/crucible/internal/state"
)

// extractionStage siphons value along extraction edges, target to source,
// publishing one economic event per transfer. An edge never extracts more
// than the target holds; edges with an inactive endpoint lie dormant. After
// the transfers it logs each class unit's rent standing for the tick.
type extractionStage struct{}

func (extractionStage) Name() string { return "extraction" }

func (extractionStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	for _, edge := range g.EdgesOf(state.RelationExtraction) {
		src, ok := g.Node(edge.Source)
		if !ok {
			return fmt.Errorf("extraction edge references missing source %s", edge.Source)
		}
		tgt, ok := g.Node(edge.Target)
		if !ok {
			return fmt.Errorf("extraction edge references missing target %s", edge.Target)
		}
		if !src.Active || !tgt.Active {
			continue
		}
		amount := math.Min(edge.Strength, tgt.Wealth)
		if amount <= 0 {
			continue
		}
		tgt.Wealth -= amount
		src.Wealth += amount
		svc.Bus.Publish(event.KindRentExtracted, event.Fields{
			"source": string(edge.Source),
			"target": string(edge.Target),
			"amount": amount,
		})
	}

	for _, e := range g.Nodes() {
		if !e.Active || !e.Class() {
			continue
		}
		rent, ratio, err := rentStanding(g, svc, e.ID)
		if err != nil {
			svc.Log.Warn("rent standing domain clamp",
				"tick", tc.Tick, "entity", e.ID, "error", err)
		}
		svc.Log.Debug("rent standing",
			"tick", tc.Tick, "entity", e.ID, "rent", rent, "ratio", ratio)
	}
	return nil
}

// rentStanding computes this tick's imperial rent and aristocracy ratio for
// a class unit: notional wage inflows against its own production. Notional
// strengths are used rather than realized transfers so the standing does not
// depend on payer solvency within the tick.
func rentStanding(g *state.Graph, svc *Services, id state.EntityID) (rent, ratio float64, err error) {
	e, ok := g.Node(id)
	if !ok {
		return 0, 0, fmt.Errorf("rent standing for missing entity %s", id)
	}
	wages := 0.0
	for _, w := range g.EdgesOf(state.RelationWage) {
		if w.Target == id {
			wages += w.Strength
		}
	}
	produced := float64(e.Population) * svc.Cfg.LaborProductivity
	rent = formula.ImperialRent(wages, produced)
	ratio, err = formula.AristocracyRatio(wages, produced)
	return rent, ratio, err
}
