package cmd

import (
	"go.uber.org/zap"

	"pgcompare/internal/config"
	"pgcompare/internal/logging"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(cfg.LogDestination, cfg.LogLevel)
}
