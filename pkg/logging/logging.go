// Package logging builds the zap loggers used by the canvaslog commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ssargent/canvaslog/pkg/canvas"
)

// New returns a JSON production logger writing at level and above.
// An empty level means "info".
func New(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Sampling = nil

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// Record returns the fields identifying rec in a log line.
func Record(rec canvas.Record) []zap.Field {
	if rec == nil {
		return []zap.Field{zap.String("type", "nil")}
	}
	return []zap.Field{
		zap.Stringer("type", rec.Tag()),
		zap.Uint16("tag", uint16(rec.Tag())),
		zap.Bool("silent", canvas.IsSilent(rec)),
	}
}
