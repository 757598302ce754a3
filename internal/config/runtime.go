package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Runtime holds process-level settings read from CRUCIBLE_* environment
// variables: where the database lives, whether the HTTP API is exposed, how
// to log. An empty API address keeps the API off.
type Runtime struct {
	DBPath   string `env:"CRUCIBLE_DB" envDefault:"data/crucible.db"`
	APIAddr  string `env:"CRUCIBLE_API_ADDR" envDefault:""`
	LogLevel string `env:"CRUCIBLE_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"CRUCIBLE_LOG_JSON" envDefault:"false"`
}

// LoadRuntime parses the process environment into a Runtime.
func LoadRuntime() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Runtime{}, fmt.Errorf("parse environment: %w", err)
	}
	return rt, nil
}

// SlogLevel maps the configured level name onto slog. Unknown names fall
// back to info.
func (r Runtime) SlogLevel() slog.Level {
	switch strings.ToLower(r.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
