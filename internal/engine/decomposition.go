package engine

import (
	"fmt"
	"slices"

	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/formula"
	"github.com/setomorph/crucible/internal/state"
)

// decompositionStage handles units coming apart. The fallback split breaks a
// destitute unit into an enforcement child and a general child, population
// and wealth divided by the configured fractions and the parent deactivated,
// never deleted. The control-ratio check then walks every extraction edge:
// dependents beyond the controller's capacity trigger a crisis resolved by
// the dependents' organization. Organized dependents sever the edge,
// disorganized ones are culled. Children inserted mid-tick keep the sorted
// iteration order, so later stages see them.
// See design doc Section 4.7.
type decompositionStage struct{}

func (decompositionStage) Name() string { return "decomposition" }

func (decompositionStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	cfg := svc.Cfg

	for _, id := range slices.Clone(g.NodeIDs()) {
		e, ok := g.Node(id)
		if !ok {
			return fmt.Errorf("node list references missing entity %s", id)
		}
		if !e.Active || !e.Class() || e.Population < cfg.DecompositionMinPopulation || e.Population <= 0 {
			continue
		}
		perCapita := e.Wealth / float64(e.Population)
		if perCapita >= cfg.DecompositionWealthFloor*e.Subsistence {
			continue
		}
		enfPop := formula.SplitCount(e.Population, cfg.EnforcementFraction)
		genPop := formula.SplitCount(e.Population, cfg.GeneralFraction)
		if enfPop == 0 || genPop == 0 {
			continue
		}

		enforcement := state.Entity{
			ID:           id + "-enforcement",
			Name:         e.Name + " Enforcement",
			Kind:         state.KindClass,
			Population:   enfPop,
			Wealth:       e.Wealth * cfg.EnforcementFraction,
			Subsistence:  e.Subsistence,
			Ideology:     e.Ideology,
			Organization: e.Organization,
			Repression:   e.Repression,
			Inequality:   e.Inequality,
			Active:       true,
		}
		general := state.Entity{
			ID:           id + "-general",
			Name:         e.Name + " General",
			Kind:         state.KindClass,
			Population:   genPop,
			Wealth:       e.Wealth * cfg.GeneralFraction,
			Subsistence:  e.Subsistence,
			Ideology:     e.Ideology,
			Organization: e.Organization,
			Repression:   e.Repression,
			Inequality:   e.Inequality,
			Active:       true,
		}
		if err := g.AddEntity(enforcement); err != nil {
			return err
		}
		if err := g.AddEntity(general); err != nil {
			return err
		}

		// The general child inherits the parent's social position: every
		// edge referencing the parent re-points to it.
		for _, edge := range g.Edges() {
			if edge.Source == id {
				edge.Source = general.ID
			}
			if edge.Target == id {
				edge.Target = general.ID
			}
		}

		// Rounding remainder is transition loss; the parent keeps its
		// identity but nothing else.
		e.Active = false
		e.Population = 0
		e.Wealth = 0

		svc.Bus.Publish(event.KindDecomposition, event.Fields{
			"parent":            string(id),
			"enforcement":       string(enforcement.ID),
			"general":           string(general.ID),
			"enforcement_share": cfg.EnforcementFraction,
			"general_share":     cfg.GeneralFraction,
		})
		svc.Log.Info("unit decomposed",
			"tick", tc.Tick, "parent", id,
			"enforcement", enforcement.ID, "general", general.ID)
	}

	severed := make(map[*state.Relationship]bool)
	for _, edge := range g.EdgesOf(state.RelationExtraction) {
		controller, dependent, err := endpoints(g, edge)
		if err != nil {
			return err
		}
		if !controller.Active || !dependent.Active {
			continue
		}
		if controller.Population <= 0 {
			// Nobody left controlling; the edge is dead weight, not a crisis.
			continue
		}
		if !formula.ControlCrisis(dependent.Population, controller.Population, cfg.ControlCapacity) {
			continue
		}
		ratio := float64(dependent.Population) / (float64(controller.Population) * cfg.ControlCapacity)
		outcome := formula.TerminalOutcome(dependent.Organization, cfg.RevolutionThreshold)
		switch outcome {
		case formula.OutcomeOrganized:
			severed[edge] = true
			dependent.Repression = formula.Clamp01(dependent.Repression - cfg.RepressionShock)
		case formula.OutcomeElimination:
			deaths := formula.AttritionDeaths(dependent.Population, cfg.EliminationFraction)
			dependent.Population -= deaths
			dependent.Repression = formula.Clamp01(dependent.Repression + cfg.RepressionShock)
		}
		svc.Bus.Publish(event.KindControlCrisis, event.Fields{
			"controller": string(edge.Source),
			"dependent":  string(edge.Target),
			"ratio":      ratio,
			"outcome":    string(outcome),
		})
	}
	if len(severed) > 0 {
		g.FilterEdges(func(r *state.Relationship) bool { return !severed[r] })
	}
	return nil
}
