// Package logging builds the structured logger the rest of the pipeline
// writes through, using go.uber.org/zap the way caddy's server does —
// the original implementation has no logging of its own beyond a
// never-filled-in TODO.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how the root logger is built.
type Options struct {
	// Development enables human-readable, color-free console output
	// suited to a terminal instead of JSON suited to a log collector.
	Development bool

	// Level is the minimum level that reaches output; the zero value
	// means zapcore.InfoLevel.
	Level zapcore.Level
}

// New builds the root logger for a server process.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(opts.Level)
	return cfg.Build()
}
