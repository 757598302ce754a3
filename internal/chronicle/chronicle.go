// Package chronicle renders a run's event log as a plain-text dispatch:
// one deterministic line per event kind, grouped by tick under a world
// summary header. The same log always reads the same.
// See design doc Section 10.
package chronicle

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/setomorph/crucible/internal/event"
	"github.com/setomorph/crucible/internal/state"
)

// Per-tick line cap before the dispatch truncates with a count.
const tickLineCap = 12

// Render writes the dispatch for the events of [fromTick, toTick], headed by
// the snapshot's current standing. Entity IDs resolve to display names where
// the snapshot still knows them.
func Render(snap state.Snapshot, fromTick, toTick uint64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CRUCIBLE DISPATCH\n")
	fmt.Fprintf(&b, "=================\n")
	fmt.Fprintf(&b, "Ticks %d to %d.\n\n", fromTick, toTick)

	var population int64
	var wealth float64
	classes, territories := 0, 0
	for _, e := range snap.Entities {
		if !e.Active {
			continue
		}
		if e.Class() {
			classes++
			population += e.Population
			wealth += e.Wealth
		} else {
			territories++
		}
	}
	fmt.Fprintf(&b, "STANDING\n")
	fmt.Fprintf(&b, "%d class units across %d territories.\n", classes, territories)
	fmt.Fprintf(&b, "Population %s, wealth %s in circulation.\n\n",
		humanize.Comma(population), humanize.CommafWithDigits(wealth, 1))

	byTick := make(map[uint64][]string)
	var order []uint64
	for _, ev := range snap.Events {
		if ev.Tick < fromTick || ev.Tick > toTick {
			continue
		}
		line, ok := Describe(snap, ev)
		if !ok {
			continue
		}
		if _, seen := byTick[ev.Tick]; !seen {
			order = append(order, ev.Tick)
		}
		byTick[ev.Tick] = append(byTick[ev.Tick], line)
	}

	for _, tick := range order {
		fmt.Fprintf(&b, "TICK %d\n", tick)
		lines := byTick[tick]
		for i, line := range lines {
			if i >= tickLineCap {
				fmt.Fprintf(&b, "...and %d more.\n", len(lines)-tickLineCap)
				break
			}
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Describe renders one event as a dispatch line. Unknown kinds report false
// and are skipped by the caller.
func Describe(snap state.Snapshot, ev event.Event) (string, bool) {
	name := func(id string) string {
		if e, ok := snap.Entity(state.EntityID(id)); ok && e.Name != "" {
			return e.Name
		}
		return id
	}

	switch p := ev.Payload.(type) {
	case event.RentExtractedPayload:
		return fmt.Sprintf("%s extracted %s in value from %s.",
			name(p.Source), humanize.CommafWithDigits(p.Amount, 1), name(p.Target)), true
	case event.WagesPaidPayload:
		return fmt.Sprintf("%s paid %s in wages to %s.",
			name(p.Employer), humanize.CommafWithDigits(p.Amount, 1), name(p.Worker)), true
	case event.TributePaidPayload:
		return fmt.Sprintf("%s rendered %s in tribute to %s.",
			name(p.Payer), humanize.CommafWithDigits(p.Amount, 1), name(p.Recipient)), true
	case event.SolidarityForgedPayload:
		return fmt.Sprintf("A solidarity channel opened between %s and %s at strength %.2f.",
			name(p.First), name(p.Second), p.Strength), true
	case event.SolidarityDissolvedPayload:
		return fmt.Sprintf("The channel between %s and %s went quiet.",
			name(p.First), name(p.Second)), true
	case event.IdeologyShiftPayload:
		direction := "toward reaction"
		if p.To < p.From {
			direction = "toward consciousness"
		}
		return fmt.Sprintf("%s drifted %s (%.2f to %.2f).",
			name(p.Entity), direction, p.From, p.To), true
	case event.RupturePayload:
		return fmt.Sprintf("%s crossed the point of rupture: revolution %.2f against acquiescence %.2f.",
			name(p.Entity), p.Revolution, p.Acquiescence), true
	case event.UprisingPayload:
		if p.Outcome == "victory" {
			return fmt.Sprintf("%s rose in %s and won, at intensity %.2f.",
				name(p.Entity), name(p.Territory), p.Intensity), true
		}
		return fmt.Sprintf("%s rose in %s and was suppressed, at intensity %.2f.",
			name(p.Entity), name(p.Territory), p.Intensity), true
	case event.EvictionPayload:
		return fmt.Sprintf("%s was cleared out of %s at heat %.2f.",
			name(p.Occupant), name(p.Territory), p.Heat), true
	case event.DisplacementPayload:
		if p.To == "" {
			return fmt.Sprintf("%s dispersed from %s with nowhere to go.",
				name(p.Occupant), name(p.From)), true
		}
		return fmt.Sprintf("%s moved from %s to %s.",
			name(p.Occupant), name(p.From), name(p.To)), true
	case event.TensionCriticalPayload:
		return fmt.Sprintf("Tension on the %s relation between %s and %s reached %.2f.",
			p.Relation, name(p.Source), name(p.Target), p.Tension), true
	case event.ControlCrisisPayload:
		if p.Outcome == "organized-resolution" {
			return fmt.Sprintf("%s broke free of %s's control at ratio %.1f.",
				name(p.Dependent), name(p.Controller), p.Ratio), true
		}
		return fmt.Sprintf("%s's control crisis over %s ended in elimination at ratio %.1f.",
			name(p.Controller), name(p.Dependent), p.Ratio), true
	case event.AttritionPayload:
		return fmt.Sprintf("%s lost %s to attrition, coverage at %.2f.",
			name(p.Entity), humanize.Comma(p.Deaths), p.Coverage), true
	case event.ExtinctionPayload:
		return fmt.Sprintf("%s is gone: %s.", name(p.Entity), p.Cause), true
	case event.DecompositionPayload:
		return fmt.Sprintf("%s came apart into %s and %s.",
			name(p.Parent), name(p.Enforcement), name(p.General)), true
	case event.PhaseTransitionPayload:
		return fmt.Sprintf("The solidarity network shifted from %s to %s, percolation at %.2f.",
			p.Previous, p.Next, p.Ratio), true
	case event.ResilienceProbePayload:
		if !p.Tested {
			return "The purge test could not run.", true
		}
		verdict := "collapsed under"
		if p.Passed {
			verdict = "held through"
		}
		return fmt.Sprintf("The network %s a purge of %d units: the largest component went %d to %d.",
			verdict, p.Removed, p.LargestBefore, p.LargestAfter), true
	}
	return "", false
}
