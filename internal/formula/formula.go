// Package formula provides the pure numeric core of the simulation: rent
// accounting, survival probabilities, mortality, decomposition splits and
// ideology drift. Every function is deterministic and side-effect free; the
// same inputs always produce the same outputs. Functions whose domain excludes
// an input return the nearest-valid clamped result together with a DomainError
// so callers can log and continue.
// See design doc Sections 3, 4 and 12.
package formula

import "math"

// Guard floors for denominators whose domain excludes zero.
const (
	// MinRepression is the smallest admissible repression exposure.
	// Non-positive inputs clamp here.
	MinRepression = 1e-6

	// MinValueProduced is the smallest admissible produced value when
	// computing rent-share ratios.
	MinValueProduced = 1e-6

	// MinSubsistence is the smallest admissible per-capita need when
	// computing coverage.
	MinSubsistence = 1e-9
)

// Logistic is the standard logistic sigmoid, mapping any real input into (0, 1).
func Logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// ImperialRent returns wages received minus value produced. Positive rent
// marks a net-benefiting unit: value flows in beyond anything local labor
// accounts for.
func ImperialRent(wagesReceived, valueProduced float64) float64 {
	return wagesReceived - valueProduced
}

// AristocracyRatio returns wages received over value produced. Ratios above 1
// mark a labor aristocracy. Non-positive valueProduced is outside the domain:
// the ratio is taken against MinValueProduced and the error reports the
// substitution.
func AristocracyRatio(wagesReceived, valueProduced float64) (float64, error) {
	if valueProduced <= 0 {
		return wagesReceived / MinValueProduced, &DomainError{
			Formula:   "aristocracy-ratio",
			Input:     "value_produced",
			Value:     valueProduced,
			ClampedTo: MinValueProduced,
		}
	}
	return wagesReceived / valueProduced, nil
}

// SurvivalByAcquiescence is the probability a unit survives by staying the
// course: logistic in the margin between wealth and the subsistence threshold.
// Always in (0, 1).
func SurvivalByAcquiescence(wealth, subsistenceThreshold float64) float64 {
	return Logistic(wealth - subsistenceThreshold)
}

// SurvivalByRevolution is the probability a unit survives by overturning its
// conditions: organization over repression exposure, pinned to [0, 1].
// Repression at or below zero is outside the domain; it clamps to
// MinRepression.
func SurvivalByRevolution(organization, repression float64) (float64, error) {
	if repression <= 0 {
		return Clamp01(organization / MinRepression), &DomainError{
			Formula:   "survival-by-revolution",
			Input:     "repression",
			Value:     repression,
			ClampedTo: MinRepression,
		}
	}
	return Clamp01(organization / repression), nil
}

// Rupture reports whether revolutionary survival strictly exceeds acquiescent
// survival. Equality is not rupture.
func Rupture(revolution, acquiescence float64) bool {
	return revolution > acquiescence
}

// SubsistenceDrain returns wealth after one tick of consumption: per-capita
// need times population times the configured multiplier, floored at zero.
func SubsistenceDrain(wealth float64, population int64, subsistence, multiplier float64) float64 {
	if population <= 0 {
		return wealth
	}
	return math.Max(0, wealth-subsistence*float64(population)*multiplier)
}

// AttritionThreshold is the coverage ratio below which attrition begins.
// It rises with inequality: an unequal unit needs more aggregate slack before
// its poorest strata stop dying.
func AttritionThreshold(inequality float64) float64 {
	return 1.0 + Clamp01(inequality)
}

// CoverageRatio is per-capita wealth over per-capita subsistence need.
// A non-positive population has no coverage to speak of and reports a
// DomainError with a zero result; a non-positive need clamps to MinSubsistence.
func CoverageRatio(wealth float64, population int64, subsistence float64) (float64, error) {
	if population <= 0 {
		return 0, &DomainError{
			Formula:   "coverage-ratio",
			Input:     "population",
			Value:     float64(population),
			ClampedTo: 0,
		}
	}
	perCapita := wealth / float64(population)
	if subsistence <= 0 {
		return perCapita / MinSubsistence, &DomainError{
			Formula:   "coverage-ratio",
			Input:     "subsistence",
			Value:     subsistence,
			ClampedTo: MinSubsistence,
		}
	}
	return perCapita / subsistence, nil
}

// AttritionRate maps a coverage shortfall into a death rate in [0, 1].
// Zero at or above the inequality-adjusted threshold; below it the deficit is
// amplified by (0.5 + inequality), so unequal units shed population faster for
// the same shortfall.
func AttritionRate(coverage, inequality float64) float64 {
	ineq := Clamp01(inequality)
	threshold := AttritionThreshold(ineq)
	if coverage >= threshold {
		return 0
	}
	return Clamp01((threshold - coverage) * (0.5 + ineq))
}

// AttritionDeaths converts a rate into whole deaths. Population counts floor,
// never round: a fractional death is nobody dead.
func AttritionDeaths(population int64, rate float64) int64 {
	if population <= 0 || rate <= 0 {
		return 0
	}
	return int64(math.Floor(float64(population) * Clamp01(rate)))
}

// Extinct reports terminal collapse: an emptied unit, or the binary case of a
// single survivor who cannot cover one tick of need.
func Extinct(population int64, wealth, subsistence float64) bool {
	if population <= 0 {
		return true
	}
	if population == 1 && wealth < subsistence {
		return true
	}
	return false
}

// SplitCount is the floored share of a population assigned to a decomposition
// child.
func SplitCount(population int64, fraction float64) int64 {
	if population <= 0 || fraction <= 0 {
		return 0
	}
	return int64(math.Floor(float64(population) * fraction))
}

// ControlCrisis reports whether a dependent population has outgrown what its
// controller can hold: dependents > controllers × capacity.
func ControlCrisis(dependent, controlling int64, capacity float64) bool {
	return float64(dependent) > float64(controlling)*capacity
}

// Outcome is the terminal resolution of a control crisis.
type Outcome string

const (
	// OutcomeOrganized resolves the crisis in the dependents' favor: the
	// extraction relation is severed.
	OutcomeOrganized Outcome = "organized-resolution"

	// OutcomeElimination resolves the crisis by force: the controller culls
	// the surplus dependent population.
	OutcomeElimination Outcome = "elimination-resolution"
)

// TerminalOutcome resolves a control crisis by the dependent side's
// organization. Organization exactly at the revolution threshold counts as
// organized: the boundary is inclusive.
func TerminalOutcome(organization, revolutionThreshold float64) Outcome {
	if organization >= revolutionThreshold {
		return OutcomeOrganized
	}
	return OutcomeElimination
}

// Agitation is the deterioration signal feeding ideology drift: how far
// current coverage has fallen below the attrition threshold, in [0, 1].
func Agitation(coverage, inequality float64) float64 {
	return Clamp01(AttritionThreshold(inequality) - coverage)
}

// IdeologyDrift returns the signed per-tick ideology delta. Solidary units
// drift toward class consciousness (negative), isolated units toward reaction
// (positive), scaled by sensitivity and agitation.
func IdeologyDrift(sensitivity, agitation float64, solidary bool) float64 {
	drift := sensitivity * Clamp01(agitation)
	if solidary {
		drift = -drift
	}
	return Clamp(drift, -1.0, 1.0)
}

// Sanitize replaces a non-finite value with the given fallback. Stages run it
// over derived quantities before writing them back, so a stray NaN degrades to
// a logged warning instead of a validation abort.
func Sanitize(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
