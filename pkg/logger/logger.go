// Package logger builds the zap logger every CLI command shares. The CLI
// only ever runs as a foreground process against a terminal or a redirected
// file, so there is no request-scoped middleware here, only a level and an
// encoding chosen once at startup.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names accepted by the --log-level flag (spec.md §6.4).
const (
	LevelMinimal  = "minimal"
	LevelNormal   = "normal"
	LevelDetailed = "detailed"
	LevelDebug    = "debug"
)

// zapLevel maps a CLI level name to the zapcore threshold it implies.
// minimal only surfaces warnings and errors; normal is the default
// info-and-above; detailed and debug both unlock debug-level logging.
func zapLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case LevelMinimal:
		return zapcore.WarnLevel
	case LevelDetailed, LevelDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a zap.Logger for the given CLI level and output format.
// format is "console" for a human-readable terminal encoder or anything
// else (including "" and "json") for structured JSON.
func New(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if level == LevelDebug || level == LevelDetailed {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	switch strings.ToLower(format) {
	case "console":
		cfg.Encoding = "console"
	default:
		cfg.Encoding = "json"
	}

	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// Noop returns a logger that discards everything, used by callers (mainly
// tests) that need a *zap.Logger but do not care about its output.
func Noop() *zap.Logger {
	return zap.NewNop()
}
