package engine

import (
	"fmt"

	"github.com/setomorph/crucible/internal/formula"
	"github.com/setomorph/crucible/internal/state"
)

// heatStage moves territorial state attention. Occupants' visible
// organization raises heat at the territory's profile rate, overt postures
// drawing attention fastest and dormant ones slowest, while everything
// cools by the flat decay each tick.
type heatStage struct{}

func (heatStage) Name() string { return "heat" }

func (heatStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	cfg := svc.Cfg
	for _, terr := range g.Nodes() {
		if !terr.Active || !terr.Territory() {
			continue
		}
		rise := 0.0
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
			rise += cfg.HeatRate * profileFactor(cfg.HeatDormantFactor, cfg.HeatGuardedFactor, cfg.HeatOvertFactor, terr.Profile) * occupant.Organization
		}
		terr.Heat = formula.Clamp01(terr.Heat + rise - cfg.HeatDecay)
	}
	return nil
}

func profileFactor(dormant, guarded, overt float64, p state.Profile) float64 {
	switch p {
	case state.ProfileDormant:
		return dormant
	case state.ProfileOvert:
		return overt
	}
	return guarded
}
