package engine

import (
	"github.com/setomorph/crucible/internal/state"
)

// productionStage credits each active class unit with the value its labor
// produces this tick: population × labor productivity. Production runs
// before any transfer so the material base moves first.
type productionStage struct{}

func (productionStage) Name() string { return "production" }

func (productionStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	for _, e := range g.Nodes() {
		if !e.Active || !e.Class() || e.Population <= 0 {
			continue
		}
		e.Wealth += float64(e.Population) * svc.Cfg.LaborProductivity
	}
	return nil
}
