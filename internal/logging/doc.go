// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Dual output (stdout + OpenTelemetry)
//   - Automatic context field injection (trace_id, request.id)
//   - Named child loggers per component
//
// # Usage
//
// Create logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, otelProvider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx := logging.WithRequestID(ctx, requestID)
//	logger.Info(ctx, "query answered", zap.Int("departments", 2))
package logging
