// Package engine implements the tick pipeline and the run driver: a fixed
// causal sequence of transformation stages applied to the projected graph,
// one seeded random source per run, and atomic tick boundaries.
// See design doc Sections 4 and 6.
package engine

import (
	"log/slog"
	"math/rand"

	"github.com/setomorph/crucible/internal/config"
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/state"
)

// Stage is one transformation in the tick pipeline. A stage mutates the
// graph in place, publishes raw event records, and holds no state of its own
// between ticks. An error return means state corruption and aborts the tick.
type Stage interface {
	Name() string
	Apply(g *state.Graph, svc *Services, tc TickContext) error
}

// Services bundles what stages share within one tick: the tick's event bus,
// the run's seeded random source, the tunables and the logger. The driver
// rebuilds it each tick around a fresh bus.
type Services struct {
	Bus *event.Bus
	RNG *rand.Rand
	Cfg config.Tunables
	Log *slog.Logger
}

// TickContext is the read-only context stages receive: the tick being
// computed and the opening snapshot, the world exactly as the previous tick
// left it. Stages needing a before/after comparison read Opening instead of
// keeping their own memory.
type TickContext struct {
	Tick    uint64
	Opening state.Snapshot
}

// Pipeline returns the stage sequence in causal order. The order is part of
// the engine's contract: economic base first, consciousness on top of it,
// decomposition and survival on the updated material state, then the
// spatial and agency consequences. A stage reads the current tick's
// partially updated graph, so reordering silently feeds consumers stale
// inputs.
// See design doc Section 4.
func Pipeline() []Stage {
	return []Stage{
		productionStage{},
		extractionStage{},
		circulationStage{},
		subsistenceStage{},
		solidarityStage{},
		ideologyStage{},
		decompositionStage{},
		survivalStage{},
		tensionStage{},
		heatStage{},
		evictionStage{},
		uprisingStage{},
	}
}
