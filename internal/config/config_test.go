package config

import (
	"log/slog"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultTunablesValidate(t *testing.T) {
	if err := DefaultTunables().Validate(); err != nil {
		t.Fatalf("DefaultTunables().Validate() = %v", err)
	}
}

func TestTunablesValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tunables)
	}{
		{"negative productivity", func(c *Tunables) { c.LaborProductivity = -1 }},
		{"split fractions exceed one", func(c *Tunables) { c.EnforcementFraction = 0.6; c.GeneralFraction = 0.6 }},
		{"elimination fraction above one", func(c *Tunables) { c.EliminationFraction = 1.5 }},
		{"zero control capacity", func(c *Tunables) { c.ControlCapacity = 0 }},
		{"inverted percolation bands", func(c *Tunables) { c.PercolationLow = 0.7; c.PercolationHigh = 0.3 }},
		{"remove fraction above one", func(c *Tunables) { c.ResilienceRemoveFraction = 2 }},
		{"eviction threshold zero", func(c *Tunables) { c.EvictionThreshold = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultTunables()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() accepted an invalid configuration")
			}
		})
	}
}

// Scenario files overlay partial YAML on top of the defaults; fields the
// file does not mention keep their default values.
func TestTunablesYAMLOverlay(t *testing.T) {
	c := DefaultTunables()
	src := []byte("control_capacity: 6.0\nspark_probability: 0.5\n")
	if err := yaml.Unmarshal(src, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.ControlCapacity != 6.0 {
		t.Errorf("ControlCapacity = %v, want 6.0", c.ControlCapacity)
	}
	if c.SparkProbability != 0.5 {
		t.Errorf("SparkProbability = %v, want 0.5", c.SparkProbability)
	}
	if c.RevolutionThreshold != DefaultTunables().RevolutionThreshold {
		t.Errorf("RevolutionThreshold = %v, want default %v preserved",
			c.RevolutionThreshold, DefaultTunables().RevolutionThreshold)
	}
}

func TestRuntimeSlogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"warn", "warn", slog.LevelWarn},
		{"error", "ERROR", slog.LevelError},
		{"default", "", slog.LevelInfo},
		{"unknown falls back", "loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Runtime{LogLevel: tt.level}
			if got := r.SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestLoadRuntimeDefaults(t *testing.T) {
	rt, err := LoadRuntime()
	if err != nil {
		t.Fatalf("LoadRuntime() error = %v", err)
	}
	if rt.DBPath == "" {
		t.Error("DBPath default is empty")
	}
}
