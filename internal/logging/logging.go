// Package logging wires the document's structured logger the way
// edirooss-zmux-server's cmd/zmux-server/main.go buildLogger does:
// zap.NewDevelopmentConfig() by default, zap.NewProductionConfig() when
// asked for, a colored level encoder, and named sub-loggers per
// subsystem. Logging here is diagnostic only — nothing in internal/core
// branches on whether a log call succeeded, matching spec §5 (no
// side-channel effects on integration from observability).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger for a document. production selects
// zap.NewProductionConfig (JSON, info level) over the default
// development config (colored, console-encoded, debug level) used
// during interactive work, mirroring the teacher pack's main.go.
func New(production bool) *zap.Logger {
	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		// Config built above is always valid; zap.Must would panic here,
		// which is the right behavior for a construction-time error, but
		// we keep it recoverable for callers that supply a nil logger in
		// non-main contexts (tests, embedders).
		return zap.NewNop()
	}
	return log.Named("ydoc")
}

// Sub returns a child logger named after subsystem ("ydoc.<subsystem>"
// when log comes from New); the document facade uses it for its "doc"
// logger.
func Sub(log *zap.Logger, subsystem string) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log.Named(subsystem)
}
