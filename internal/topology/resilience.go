package topology

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/network"

	"github.com/setomorph/crucible/internal/state"
)

// sampleResilience runs the purge test on a disposable copy of the
// solidarity network: remove the most-central fraction of units and measure
// what survives of the largest component. The live snapshot is never
// touched. Exact centrality ties at the cut line break on the run's seeded
// source so replays remove the same units.
func (o *Observer) sampleResilience(snap state.Snapshot) ResilienceResult {
	w := buildWeb(snap, nil)
	n := len(w.ids)
	if n == 0 {
		o.log.Warn("resilience probe untested", "tick", snap.Tick, "reason", "no active units")
		return ResilienceResult{}
	}
	before := largestComponent(w.g)
	if before <= 1 {
		o.log.Warn("resilience probe untested", "tick", snap.Tick, "reason", "no connected structure")
		return ResilienceResult{LargestBefore: before}
	}

	removeCount := int(math.Ceil(float64(n) * o.cfg.ResilienceRemoveFraction))
	if removeCount <= 0 {
		o.log.Warn("resilience probe untested", "tick", snap.Tick, "reason", "empty cut")
		return ResilienceResult{LargestBefore: before}
	}
	if removeCount >= n {
		removeCount = n - 1
	}

	centrality := network.Betweenness(w.g)
	jitter := make([]float64, n)
	for i := range jitter {
		jitter[i] = o.rng.Float64()
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := centrality[int64(order[a])], centrality[int64(order[b])]
		if ca != cb {
			return ca > cb
		}
		return jitter[order[a]] > jitter[order[b]]
	})

	removed := make(map[state.EntityID]bool, removeCount)
	for _, i := range order[:removeCount] {
		removed[w.ids[i]] = true
	}
	after := largestComponent(buildWeb(snap, removed).g)

	res := ResilienceResult{
		Tested:        true,
		Removed:       removeCount,
		LargestBefore: before,
		LargestAfter:  after,
		SurvivalRatio: float64(after) / float64(before),
	}
	res.Passed = res.SurvivalRatio >= o.cfg.ResilienceSurvival
	o.log.Info("resilience probe",
		"tick", snap.Tick,
		"removed", removeCount,
		"largest_before", before, "largest_after", after,
		"passed", res.Passed)
	return res
}
