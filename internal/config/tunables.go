// Package config separates the two kinds of settings: Tunables are numeric
// simulation policy (rates, thresholds, fractions, intervals) loaded from
// YAML and overridable per scenario; Runtime is process wiring (paths,
// addresses, log level) read from CRUCIBLE_* environment variables at
// startup. Engine code receives both as values and never reads files or the
// environment itself.
// See design doc Section 11.
package config

import "fmt"

// Tunables holds every numeric policy knob of the simulation. All behavior
// thresholds live here, not in engine code.
type Tunables struct {
	// Economic base
	LaborProductivity     float64 `yaml:"labor_productivity"`     // value produced per head per tick
	SubsistenceMultiplier float64 `yaml:"subsistence_multiplier"` // scales the per-tick subsistence drain

	// Solidarity
	SolidarityTransmission    float64 `yaml:"solidarity_transmission"`     // pull toward the pair mean per tick
	SolidarityDecay           float64 `yaml:"solidarity_decay"`            // geometric strength decay per tick
	SolidarityFloor           float64 `yaml:"solidarity_floor"`            // below this the channel dissolves
	SolidarityFormationChance float64 `yaml:"solidarity_formation_chance"` // spark base probability per eligible pair
	SolidarityInitialStrength float64 `yaml:"solidarity_initial_strength"`
	SolidarityIdeologyCeiling float64 `yaml:"solidarity_ideology_ceiling"` // no links form above this ideology

	// Ideology
	DriftSensitivity float64 `yaml:"drift_sensitivity"` // sensitivity_k in the drift formula

	// Decomposition
	ControlCapacity            float64 `yaml:"control_capacity"` // dependents one controller head can hold
	RevolutionThreshold        float64 `yaml:"revolution_threshold"`
	EliminationFraction        float64 `yaml:"elimination_fraction"` // culled on elimination-resolution
	EnforcementFraction        float64 `yaml:"enforcement_fraction"`
	GeneralFraction            float64 `yaml:"general_fraction"`
	DecompositionWealthFloor   float64 `yaml:"decomposition_wealth_floor"` // split when wpc < floor × subsistence
	DecompositionMinPopulation int64   `yaml:"decomposition_min_population"`

	// Struggle
	RepressionShock float64 `yaml:"repression_shock"` // evictions, suppressions, eliminations

	// Tension
	TensionGrowth   float64 `yaml:"tension_growth"`
	TensionRelief   float64 `yaml:"tension_relief"`
	TensionCritical float64 `yaml:"tension_critical"`

	// Territory
	HeatRate          float64 `yaml:"heat_rate"`
	HeatDecay         float64 `yaml:"heat_decay"`
	HeatDormantFactor float64 `yaml:"heat_dormant_factor"`
	HeatGuardedFactor float64 `yaml:"heat_guarded_factor"`
	HeatOvertFactor   float64 `yaml:"heat_overt_factor"`
	EvictionThreshold float64 `yaml:"eviction_threshold"`
	EvictionCooldown  float64 `yaml:"eviction_cooldown"` // heat multiplier after a clearing

	// Agency
	SparkProbability          float64 `yaml:"spark_probability"`
	UprisingOrganizationFloor float64 `yaml:"uprising_organization_floor"`
	UprisingExpropriation     float64 `yaml:"uprising_expropriation"` // extraction strength cut on victory
	UprisingSetback           float64 `yaml:"uprising_setback"`       // organization cut on suppression

	// Topology
	PercolationLow           float64 `yaml:"percolation_low"`
	PercolationHigh          float64 `yaml:"percolation_high"`
	StrongTieThreshold       float64 `yaml:"strong_tie_threshold"`
	TieDensityCutoff         float64 `yaml:"tie_density_cutoff"`
	ResilienceInterval       uint64  `yaml:"resilience_interval"` // ticks between purge tests, 0 disables
	ResilienceRemoveFraction float64 `yaml:"resilience_remove_fraction"`
	ResilienceSurvival       float64 `yaml:"resilience_survival"`

	// Persistence
	CheckpointInterval uint64 `yaml:"checkpoint_interval"` // snapshot save cadence, 0 = final only
}

// DefaultTunables returns the baseline configuration every scenario starts
// from. Scenario files overlay their own values on top of these.
func DefaultTunables() Tunables {
	return Tunables{
		LaborProductivity:     0.1,
		SubsistenceMultiplier: 1.0,

		SolidarityTransmission:    0.05,
		SolidarityDecay:           0.02,
		SolidarityFloor:           0.05,
		SolidarityFormationChance: 0.1,
		SolidarityInitialStrength: 0.3,
		SolidarityIdeologyCeiling: 0.5,

		DriftSensitivity: 0.08,

		ControlCapacity:            4.0,
		RevolutionThreshold:        0.5,
		EliminationFraction:        0.1,
		EnforcementFraction:        0.2,
		GeneralFraction:            0.7,
		DecompositionWealthFloor:   0.5,
		DecompositionMinPopulation: 100,

		RepressionShock: 0.1,

		TensionGrowth:   0.05,
		TensionRelief:   0.01,
		TensionCritical: 0.8,

		HeatRate:          0.05,
		HeatDecay:         0.02,
		HeatDormantFactor: 0.5,
		HeatGuardedFactor: 1.0,
		HeatOvertFactor:   2.0,
		EvictionThreshold: 0.9,
		EvictionCooldown:  0.4,

		SparkProbability:          0.25,
		UprisingOrganizationFloor: 0.4,
		UprisingExpropriation:     0.5,
		UprisingSetback:           0.3,

		PercolationLow:           0.25,
		PercolationHigh:          0.6,
		StrongTieThreshold:       0.5,
		TieDensityCutoff:         1.0,
		ResilienceInterval:       25,
		ResilienceRemoveFraction: 0.1,
		ResilienceSurvival:       0.5,

		CheckpointInterval: 50,
	}
}

// Validate rejects tunable combinations the pipeline cannot run with.
func (t Tunables) Validate() error {
	if t.LaborProductivity < 0 {
		return fmt.Errorf("labor_productivity %g must be non-negative", t.LaborProductivity)
	}
	if t.EnforcementFraction < 0 || t.GeneralFraction < 0 ||
		t.EnforcementFraction+t.GeneralFraction > 1 {
		return fmt.Errorf("decomposition fractions %g + %g must be non-negative and sum to at most 1",
			t.EnforcementFraction, t.GeneralFraction)
	}
	if t.EliminationFraction < 0 || t.EliminationFraction > 1 {
		return fmt.Errorf("elimination_fraction %g outside [0, 1]", t.EliminationFraction)
	}
	if t.ControlCapacity <= 0 {
		return fmt.Errorf("control_capacity %g must be positive", t.ControlCapacity)
	}
	if t.PercolationLow < 0 || t.PercolationHigh > 1 || t.PercolationLow >= t.PercolationHigh {
		return fmt.Errorf("percolation bands [%g, %g] must be ordered within [0, 1]",
			t.PercolationLow, t.PercolationHigh)
	}
	if t.ResilienceRemoveFraction < 0 || t.ResilienceRemoveFraction > 1 {
		return fmt.Errorf("resilience_remove_fraction %g outside [0, 1]", t.ResilienceRemoveFraction)
	}
	if t.ResilienceSurvival < 0 || t.ResilienceSurvival > 1 {
		return fmt.Errorf("resilience_survival %g outside [0, 1]", t.ResilienceSurvival)
	}
	if t.EvictionThreshold <= 0 || t.EvictionThreshold > 1 {
		return fmt.Errorf("eviction_threshold %g outside (0, 1]", t.EvictionThreshold)
	}
	return nil
}
