// Package logging builds the process-wide structured logger and the
// progress-marker helper that reports page throughput during a long dump
// run.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console logger. verbose selects debug-level output and
// page-progress markers; the default level is info.
func New(verbose bool) *zap.Logger {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// ProgressInterval is the page count between progress markers in verbose
// mode.
const ProgressInterval = 100000

// Progress logs a throughput marker every ProgressInterval pages. It
// does not check the verbose setting itself; the drivers call it only
// in verbose mode.
func Progress(logger *zap.Logger, pagesProcessed int) {
	if pagesProcessed == 0 || pagesProcessed%ProgressInterval != 0 {
		return
	}
	logger.Info("progress", zap.Int("pages_processed", pagesProcessed))
}
