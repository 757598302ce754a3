package engine

import (
	"math"

	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/formula"
	"github.com/setomorph/crucible/internal/state"
)

// solidarityStage runs the consciousness channels. Transmission pulls both
// ends of every channel toward its advanced pole: ideology toward the lower
// endpoint, organization toward the higher. Channel strength decays
// geometrically and dissolves below the retention floor. New channels form
// between exploited pairs, drawn against the formation chance from the run's
// seeded source in sorted pair order.
// See design doc Section 4.5.
type solidarityStage struct{}

func (solidarityStage) Name() string { return "solidarity" }

func (solidarityStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	cfg := svc.Cfg

	for _, edge := range g.EdgesOf(state.RelationSolidarity) {
		a, b, err := endpoints(g, edge)
		if err != nil {
			return err
		}
		if !a.Active || !b.Active {
			continue
		}
		pull := formula.Clamp01(cfg.SolidarityTransmission * edge.Strength)
		lowIdeology := math.Min(a.Ideology, b.Ideology)
		highOrganization := math.Max(a.Organization, b.Organization)
		a.Ideology = formula.Clamp(a.Ideology+(lowIdeology-a.Ideology)*pull, -1, 1)
		b.Ideology = formula.Clamp(b.Ideology+(lowIdeology-b.Ideology)*pull, -1, 1)
		a.Organization = formula.Clamp01(a.Organization + (highOrganization-a.Organization)*pull)
		b.Organization = formula.Clamp01(b.Organization + (highOrganization-b.Organization)*pull)
	}

	dissolved := make(map[*state.Relationship]bool)
	for _, edge := range g.EdgesOf(state.RelationSolidarity) {
		edge.Strength *= 1 - cfg.SolidarityDecay
		if edge.Strength < cfg.SolidarityFloor {
			dissolved[edge] = true
			svc.Bus.Publish(event.KindSolidarityDissolved, event.Fields{
				"first":  string(edge.Source),
				"second": string(edge.Target),
			})
		}
	}
	if len(dissolved) > 0 {
		g.FilterEdges(func(r *state.Relationship) bool { return !dissolved[r] })
	}

	ids := g.NodeIDs()
	for i := 0; i < len(ids); i++ {
		a, _ := g.Node(ids[i])
		if !eligibleForSolidarity(g, svc, a) {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b, _ := g.Node(ids[j])
			if !eligibleForSolidarity(g, svc, b) {
				continue
			}
			if linked(g, a.ID, b.ID) {
				continue
			}
			chance := cfg.SolidarityFormationChance * (a.Organization + b.Organization) / 2
			if chance <= 0 || svc.RNG.Float64() >= chance {
				continue
			}
			edge := state.Relationship{
				Kind:     state.RelationSolidarity,
				Source:   a.ID,
				Target:   b.ID,
				Strength: cfg.SolidarityInitialStrength,
			}
			if err := g.AddEdge(edge); err != nil {
				return err
			}
			svc.Bus.Publish(event.KindSolidarityForged, event.Fields{
				"first":    string(a.ID),
				"second":   string(b.ID),
				"strength": cfg.SolidarityInitialStrength,
			})
		}
	}
	return nil
}

// eligibleForSolidarity gates formation: an active class unit, not too
// reactionary, on the losing side of the rent accounting.
func eligibleForSolidarity(g *state.Graph, svc *Services, e *state.Entity) bool {
	if !e.Active || !e.Class() || e.Population <= 0 {
		return false
	}
	if e.Ideology > svc.Cfg.SolidarityIdeologyCeiling {
		return false
	}
	_, ratio, err := rentStanding(g, svc, e.ID)
	if err != nil {
		// Degenerate production already reported by the extraction stage.
		return false
	}
	return ratio < 1
}

// linked reports an existing solidarity channel between the two units,
// either orientation.
func linked(g *state.Graph, a, b state.EntityID) bool {
	for _, edge := range g.EdgesOf(state.RelationSolidarity) {
		if (edge.Source == a && edge.Target == b) || (edge.Source == b && edge.Target == a) {
			return true
		}
	}
	return false
}
