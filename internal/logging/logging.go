// Package logging builds the run's single *zap.Logger. There is no
// package-level logger global: every component that logs takes one
// explicitly, the way the teacher threads its own logger through
// constructors rather than reaching for a singleton.
package logging

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// New builds a logger for one run. verbose selects zap's development
// config (console encoding, debug level, caller info) over its production
// config (JSON, info level). Every line carries run_id so concurrent runs
// or retries can be told apart in aggregated logs.
func New(verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.InitialFields = map[string]any{"run_id": uuid.NewString()}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}
