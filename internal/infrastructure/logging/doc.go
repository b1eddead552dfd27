// Package logging provides structured logging using uber/zap.
//
// Two encodings are available:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Outputs may be stdout, stderr or file paths. File outputs can be rotated
// with lumberjack (size, backups, age, compression).
//
// Field conventions used across the service: slot, channel, handle, bytes.
//
// Example Usage:
//
//	logger, err := logging.FromConfig(cfg.Logging)
//	if err != nil {
//		logger = logging.NewDefault()
//	}
//	logger.Named("device").Info("slot created", zap.Uint32("slot", 4))
package logging
