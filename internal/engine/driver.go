package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/setomorph/crucible/internal/config"
	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/state"
	"github.com/setomorph/crucible/internal/topology"
)

// Driver owns one run: the stage pipeline, the run's single seeded random
// source, the cross-tick staging buffer and the topology observer. Two
// drivers built from the same seed and initial snapshot produce identical
// runs.
// See design doc Section 6.
type Driver struct {
	cfg      config.Tunables
	log      *slog.Logger
	rng      *rand.Rand
	pipeline []Stage
	staging  *event.Staging
	observer *topology.Observer
	runID    string

	// OnSnapshot, when set, receives every finalized snapshot together with
	// its topology reading. Persistence and the API attach here; the callback
	// must treat the snapshot as read-only.
	OnSnapshot func(state.Snapshot, topology.Record)
}

// NewDriver builds a driver around one seeded source. The seed fixes every
// random draw of the run, including the observer's probe tie-breaks.
func NewDriver(cfg config.Tunables, seed int64, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	rng := rand.New(rand.NewSource(seed))
	return &Driver{
		cfg:      cfg,
		log:      log,
		rng:      rng,
		pipeline: Pipeline(),
		staging:  event.NewStaging(),
		observer: topology.NewObserver(cfg, log, rng),
		runID:    uuid.NewString(),
	}
}

// RunID returns the identity assigned to this run.
func (d *Driver) RunID() string {
	return d.runID
}

// Topology returns the observer's most recent reading.
func (d *Driver) Topology() topology.Record {
	return d.observer.Last()
}

// Run advances the world from the initial snapshot until maxTicks ticks have
// been computed or the context is cancelled, returning the last finalized
// snapshot. Cancellation between ticks is a clean stop, not an error. A
// stage or validation failure aborts the run and the world stays at the last
// good tick.
func (d *Driver) Run(ctx context.Context, initial state.Snapshot, maxTicks uint64) (state.Snapshot, error) {
	if err := state.Validate(initial); err != nil {
		return state.Snapshot{}, fmt.Errorf("initial snapshot: %w", err)
	}
	d.log.Info("run starting",
		"run_id", d.runID,
		"tick", initial.Tick,
		"max_ticks", maxTicks,
		"entities", len(initial.Entities),
		"active", initial.ActiveCount())

	cur := initial
	for computed := uint64(0); computed < maxTicks; computed++ {
		select {
		case <-ctx.Done():
			d.log.Info("run cancelled", "run_id", d.runID, "tick", cur.Tick)
			return cur, nil
		default:
		}
		next, err := d.Step(cur)
		if err != nil {
			return cur, err
		}
		cur = next
	}
	d.log.Info("run complete",
		"run_id", d.runID,
		"tick", cur.Tick,
		"active", cur.ActiveCount(),
		"events", len(cur.Events))
	return cur, nil
}

// Step computes exactly one tick: project the opening snapshot, inject
// staged observer records, apply every stage in pipeline order, drain the
// bus, materialize and validate the closing snapshot, then let the observer
// read it. A failed tick aborts the run; nothing from it reaches the world
// or the event log.
func (d *Driver) Step(cur state.Snapshot) (state.Snapshot, error) {
	tick := cur.Tick + 1

	g, err := state.Project(cur)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("tick %d: project: %w", tick, err)
	}

	bus := event.NewBus()
	bus.Inject(d.staging.Drain())
	svc := &Services{Bus: bus, RNG: d.rng, Cfg: d.cfg, Log: d.log}
	tc := TickContext{Tick: tick, Opening: cur}

	for _, st := range d.pipeline {
		if err := st.Apply(g, svc, tc); err != nil {
			return state.Snapshot{}, fmt.Errorf("tick %d: stage %s: %w", tick, st.Name(), err)
		}
	}

	batch := bus.Drain(tick, d.log)

	next, err := g.Materialize(tick)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("tick %d: materialize: %w", tick, err)
	}

	// grow-copy keeps earlier snapshots from sharing a backing array with
	// the extended log
	events := make([]event.Event, len(cur.Events), len(cur.Events)+len(batch))
	copy(events, cur.Events)
	next.Events = append(events, batch...)

	if err := state.ValidateTransition(cur, next); err != nil {
		return state.Snapshot{}, fmt.Errorf("tick %d: transition: %w", tick, err)
	}

	rec := d.observer.Observe(next, d.staging)

	d.log.Debug("tick complete",
		"run_id", d.runID,
		"tick", tick,
		"active", next.ActiveCount(),
		"events", len(batch),
		"phase", rec.Phase)

	if d.OnSnapshot != nil {
		d.OnSnapshot(next, rec)
	}
	return next, nil
}
