// Package event defines the closed set of simulation events, the per-tick
// publication bus, and the staging buffer for cross-tick injection. Stages
// publish raw records while a tick runs; a single conversion pass maps them
// into typed, immutable events grouped by category. Unknown kinds degrade to
// a logged warning, never a failed tick.
// See design doc Section 5.
package event

import "strings"

// Category groups event kinds by the dotted prefix of their kind string.
type Category string

const (
	CategoryEconomic      Category = "economic"
	CategoryConsciousness Category = "consciousness"
	CategoryStruggle      Category = "struggle"
	CategoryContradiction Category = "contradiction"
	CategoryTopology      Category = "topology"
	CategoryMortality     Category = "mortality"
)

// Kind identifies one event type. The set is closed: conversion rejects
// anything not listed here.
type Kind string

// Economic flows.
const (
	KindRentExtracted Kind = "economic.rent_extracted"
	KindWagesPaid     Kind = "economic.wages_paid"
	KindTributePaid   Kind = "economic.tribute_paid"
)

// Consciousness movements.
const (
	KindSolidarityForged    Kind = "consciousness.solidarity_forged"
	KindSolidarityDissolved Kind = "consciousness.solidarity_dissolved"
	KindIdeologyShift       Kind = "consciousness.ideology_shift"
)

// Open struggle.
const (
	KindRupture      Kind = "struggle.rupture"
	KindUprising     Kind = "struggle.uprising"
	KindEviction     Kind = "struggle.eviction"
	KindDisplacement Kind = "struggle.displacement"
)

// Accumulating contradictions.
const (
	KindTensionCritical Kind = "contradiction.tension_critical"
	KindControlCrisis   Kind = "contradiction.control_crisis"
)

// Mortality and decomposition.
const (
	KindAttrition     Kind = "mortality.attrition"
	KindExtinction    Kind = "mortality.extinction"
	KindDecomposition Kind = "mortality.decomposition"
)

// Network topology findings.
const (
	KindPhaseTransition Kind = "topology.phase_transition"
	KindResilienceProbe Kind = "topology.resilience_probe"
)

// Category returns the dotted prefix of the kind, or the empty Category when
// the kind carries no dot.
func (k Kind) Category() Category {
	s := string(k)
	if i := strings.IndexByte(s, '.'); i > 0 {
		return Category(s[:i])
	}
	return ""
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindRentExtracted, KindWagesPaid, KindTributePaid,
		KindSolidarityForged, KindSolidarityDissolved, KindIdeologyShift,
		KindRupture, KindUprising, KindEviction, KindDisplacement,
		KindTensionCritical, KindControlCrisis,
		KindAttrition, KindExtinction, KindDecomposition,
		KindPhaseTransition, KindResilienceProbe:
		return true
	}
	return false
}

// Event is one immutable record in the append-only log. Tick is the tick
// whose event list carries it; deferred topology events additionally carry
// the observed tick inside their payload.
type Event struct {
	Tick    uint64  `json:"tick"`
	Kind    Kind    `json:"kind"`
	Payload Payload `json:"payload"`
}

// Category is shorthand for e.Kind.Category().
func (e Event) Category() Category {
	return e.Kind.Category()
}
