// =============================================================================
// Plant Tag Generator - Logging
// =============================================================================
//
// All packages log through a *zap.Logger handed down from the command layer.
// Library packages default to zap.NewNop() so they stay silent in tests.
//
// =============================================================================

package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging settings.
type Config struct {
	// Level is a zap level name: debug, info, warn, error. Default: info.
	Level string

	// Format is "console" or "json". Default: console.
	Format string

	// OutputPath is a file path or "stderr". Default: stderr.
	OutputPath string

	// Verbose forces the debug level.
	Verbose bool
}

// New builds a logger from cfg.
//
// RETURNS:
//   - The logger; call Sync before exiting.
//   - An error for an unknown level or format, or an unwritable output path.
func New(cfg Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	switch cfg.Format {
	case "", "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapConfig.DisableStacktrace = true
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "time"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q (expected console or json)", cfg.Format)
	}

	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	if cfg.Verbose {
		levelName = "debug"
	}
	level, err := zap.ParseAtomicLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zapConfig.Level = level

	if cfg.OutputPath != "" {
		zapConfig.OutputPaths = []string{cfg.OutputPath}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Named returns a child logger tagged with a component name and converter.
func Named(l *zap.Logger, component, converter string) *zap.Logger {
	if converter == "" {
		return l.Named(component)
	}
	return l.Named(component).With(zap.String("converter", converter))
}
