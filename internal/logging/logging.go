// Package logging builds the structured zap logger used throughout the
// pipeline. The teacher repo logs via plain log.Printf/fmt.Printf; a
// concurrent multi-shard pipeline needs leveled, structured fields
// (table alias, shard index, side) that string formatting can't carry
// cleanly, so this module adopts go.uber.org/zap (seen elsewhere in the
// retrieval pack) as the ambient logging library.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger for the given destination ("stdout" or
// "json") and level ("debug", "info", "warn", "error").
func New(destination, level string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.SetLevel(zapcore.InfoLevel)
	}

	if strings.EqualFold(destination, "json") {
		cfg := zap.NewProductionConfig()
		cfg.Level = lvl
		return cfg.Build()
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		lvl,
	)
	return zap.New(core), nil
}

// WithRun returns a child logger tagged with the run correlation id,
// the table id and the table alias.
func WithRun(base *zap.Logger, runID string, tid int64, alias string) *zap.Logger {
	return base.With(
		zap.String("run_id", runID),
		zap.Int64("tid", tid),
		zap.String("alias", alias),
	)
}
