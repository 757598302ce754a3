// Package topology watches the finalized snapshot each tick: percolation of
// the solidarity network, phase classification over the configured bands,
// and the periodic resilience purge test. The observer reads snapshots and
// stages its findings for the next tick's event list; it never mutates
// simulation state.
// See design doc Section 7.
package topology

import (
	"log/slog"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/setomorph/crucible/internal/config"
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/state"
)

// Phase is the connectivity regime of the solidarity network.
type Phase string

const (
	PhaseFragmented   Phase = "fragmented"
	PhaseTransitional Phase = "transitional"
	PhaseBroadWeak    Phase = "broad-but-weak"
	PhaseCohesive     Phase = "cohesive"
)

// Record is one tick's topology reading.
type Record struct {
	Tick             uint64            `json:"tick"`
	ActiveUnits      int               `json:"active_units"`
	LargestComponent int               `json:"largest_component"`
	Ratio            float64           `json:"ratio"`
	TieDensity       float64           `json:"tie_density"`
	Phase            Phase             `json:"phase"`
	Resilience       *ResilienceResult `json:"resilience,omitempty"`
}

// ResilienceResult is the outcome of one purge test. Tested false means the
// sample could not run and says nothing about network health.
type ResilienceResult struct {
	Tested        bool    `json:"tested"`
	Passed        bool    `json:"passed"`
	Removed       int     `json:"removed"`
	LargestBefore int     `json:"largest_before"`
	LargestAfter  int     `json:"largest_after"`
	SurvivalRatio float64 `json:"survival_ratio"`
}

// Observer tracks the network phase across ticks so crossings are announced
// exactly once. One observer per run, fed every finalized snapshot in order.
type Observer struct {
	cfg        config.Tunables
	log        *slog.Logger
	rng        *rand.Rand
	phase      Phase
	phaseKnown bool
	last       Record
}

// NewObserver builds an observer sharing the run's seeded source, so probe
// tie-breaks replay with the run.
func NewObserver(cfg config.Tunables, log *slog.Logger, rng *rand.Rand) *Observer {
	if log == nil {
		log = slog.Default()
	}
	return &Observer{cfg: cfg, log: log, rng: rng}
}

// Observe measures a finalized snapshot, stages any findings for the next
// tick, and returns the reading. The first observation establishes the
// baseline phase without an event; later observations stage one phase
// transition per crossing. The resilience probe runs on the configured
// interval.
func (o *Observer) Observe(snap state.Snapshot, staging *event.Staging) Record {
	rec := o.measure(snap)

	if !o.phaseKnown {
		o.phase = rec.Phase
		o.phaseKnown = true
	} else if rec.Phase != o.phase {
		staging.Stage(event.KindPhaseTransition, event.Fields{
			"previous":      string(o.phase),
			"next":          string(rec.Phase),
			"ratio":         rec.Ratio,
			"largest":       int64(rec.LargestComponent),
			"observed_tick": snap.Tick,
		})
		o.log.Info("phase transition",
			"tick", snap.Tick,
			"previous", o.phase, "next", rec.Phase,
			"ratio", rec.Ratio)
		o.phase = rec.Phase
	}

	if o.cfg.ResilienceInterval > 0 && snap.Tick > 0 && snap.Tick%o.cfg.ResilienceInterval == 0 {
		res := o.sampleResilience(snap)
		rec.Resilience = &res
		staging.Stage(event.KindResilienceProbe, event.Fields{
			"tested":         res.Tested,
			"passed":         res.Passed,
			"removed":        int64(res.Removed),
			"largest_before": int64(res.LargestBefore),
			"largest_after":  int64(res.LargestAfter),
			"survival_ratio": res.SurvivalRatio,
			"observed_tick":  snap.Tick,
		})
	}

	o.last = rec
	return rec
}

// Last returns the most recent reading.
func (o *Observer) Last() Record {
	return o.last
}

func (o *Observer) measure(snap state.Snapshot) Record {
	rec := Record{Tick: snap.Tick}
	w := buildWeb(snap, nil)
	rec.ActiveUnits = len(w.ids)
	if rec.ActiveUnits > 0 {
		rec.LargestComponent = largestComponent(w.g)
		rec.Ratio = float64(rec.LargestComponent) / float64(rec.ActiveUnits)
	}
	rec.TieDensity = tieDensity(snap, o.cfg.StrongTieThreshold)
	rec.Phase = classify(o.cfg, rec.Ratio, rec.TieDensity)
	return rec
}

// classify bands the percolation ratio, splitting the top band by tie
// density: a broad network of weak ties is not yet cohesive.
func classify(cfg config.Tunables, ratio, density float64) Phase {
	switch {
	case ratio < cfg.PercolationLow:
		return PhaseFragmented
	case ratio < cfg.PercolationHigh:
		return PhaseTransitional
	case density >= cfg.TieDensityCutoff:
		return PhaseCohesive
	default:
		return PhaseBroadWeak
	}
}

// web is a disposable gonum view of the solidarity network over active class
// units. Node indices follow sorted entity ID order, so identical snapshots
// build identical graphs.
type web struct {
	g   *simple.UndirectedGraph
	ids []state.EntityID
	idx map[state.EntityID]int64
}

func buildWeb(snap state.Snapshot, skip map[state.EntityID]bool) *web {
	w := &web{g: simple.NewUndirectedGraph(), idx: make(map[state.EntityID]int64)}
	for id, e := range snap.Entities {
		if e.Active && e.Class() && !skip[id] {
			w.ids = append(w.ids, id)
		}
	}
	slices.Sort(w.ids)
	for i, id := range w.ids {
		w.idx[id] = int64(i)
		w.g.AddNode(simple.Node(int64(i)))
	}
	for _, r := range snap.Relationships {
		if r.Kind != state.RelationSolidarity {
			continue
		}
		si, ok := w.idx[r.Source]
		if !ok {
			continue
		}
		ti, ok := w.idx[r.Target]
		if !ok || si == ti {
			continue
		}
		w.g.SetEdge(simple.Edge{F: simple.Node(si), T: simple.Node(ti)})
	}
	return w
}

func largestComponent(g *simple.UndirectedGraph) int {
	largest := 0
	for _, comp := range topo.ConnectedComponents(g) {
		if len(comp) > largest {
			largest = len(comp)
		}
	}
	return largest
}

// tieDensity is strong ties over weak ties at the strength threshold,
// counting channels between active units. The weak count floors at one so
// an all-strong network reads as a finite, large density.
func tieDensity(snap state.Snapshot, threshold float64) float64 {
	strong, weak := 0, 0
	for _, r := range snap.Relationships {
		if r.Kind != state.RelationSolidarity {
			continue
		}
		if !activeUnit(snap, r.Source) || !activeUnit(snap, r.Target) {
			continue
		}
		if r.Strength >= threshold {
			strong++
		} else {
			weak++
		}
	}
	if strong == 0 && weak == 0 {
		return 0
	}
	if weak == 0 {
		weak = 1
	}
	return float64(strong) / float64(weak)
}

func activeUnit(snap state.Snapshot, id state.EntityID) bool {
	e, ok := snap.Entity(id)
	return ok && e.Active
}
