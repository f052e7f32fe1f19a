// Package logger builds the zap logger used across the application.
//
// Development settings apply at the debug level and production settings
// otherwise. Output is console or JSON; with log.file set, entries are also
// written as JSON to a rotating file.
//
// WithRayID binds the request id set by the rayid middleware so every log
// line of a request can be correlated.
//
//	log, err := logger.New(&cfg.Log)
//	log.Info("Server started")
//
//	l := logger.WithRayID(log, c)
//	l.Error("Sync failed", zap.Error(err))
package logger
