package engine

import (
	"fmt"
	"math"

	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/state"
)

// circulationStage moves wages and tribute along their edges: employers pay
// workers, subordinates remit upward. A payer never transfers more than it
// holds; the shortfall goes unpaid this tick rather than borrowed.
type circulationStage struct{}

func (circulationStage) Name() string { return "circulation" }

func (circulationStage) Apply(g *state.Graph, svc *Services, tc TickContext) error {
	for _, edge := range g.EdgesOf(state.RelationWage) {
		src, tgt, err := endpoints(g, edge)
		if err != nil {
			return err
		}
		if !src.Active || !tgt.Active {
			continue
		}
		amount := math.Min(edge.Strength, src.Wealth)
		if amount <= 0 {
			continue
		}
		src.Wealth -= amount
		tgt.Wealth += amount
		svc.Bus.Publish(event.KindWagesPaid, event.Fields{
			"employer": string(edge.Source),
			"worker":   string(edge.Target),
			"amount":   amount,
		})
	}

	for _, edge := range g.EdgesOf(state.RelationTribute) {
		src, tgt, err := endpoints(g, edge)
		if err != nil {
			return err
		}
		if !src.Active || !tgt.Active {
			continue
		}
		amount := math.Min(edge.Strength, src.Wealth)
		if amount <= 0 {
			continue
		}
		src.Wealth -= amount
		tgt.Wealth += amount
		svc.Bus.Publish(event.KindTributePaid, event.Fields{
			"payer":     string(edge.Source),
			"recipient": string(edge.Target),
			"amount":    amount,
		})
	}
	return nil
}

// endpoints resolves both ends of an edge, failing as corruption when either
// is gone.
func endpoints(g *state.Graph, r *state.Relationship) (src, tgt *state.Entity, err error) {
	src, ok := g.Node(r.Source)
	if !ok {
		return nil, nil, fmt.Errorf("%s edge references missing source %s", r.Kind, r.Source)
	}
	tgt, ok = g.Node(r.Target)
	if !ok {
		return nil, nil, fmt.Errorf("%s edge references missing target %s", r.Kind, r.Target)
	}
	return src, tgt, nil
}
