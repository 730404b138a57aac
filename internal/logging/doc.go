// Package logging provides structured logging for the pductl tools.
//
// This package wraps zap with convenience functions for the logging patterns
// used across the CLI and the device clients. Logging is silent by default
// so command output stays clean; set PDUCTL_LOG_LEVEL to enable it.
//
// # Log Levels
//
//   - Debug: hex dumps of sideband datagrams, per-request HTTP detail
//   - Info: normal operations (device found, credentials rotated)
//   - Warn: non-fatal issues (probe failures during discovery)
//   - Error: fatal issues
//
// # Usage
//
// Initialize once at startup, then log with structured fields:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
//	logging.Info("device found",
//	    zap.String("addr", "192.168.1.163"),
//	    zap.Float64("amps", status.CurrentAmps),
//	)
//
// All functions are safe for concurrent use.
package logging
