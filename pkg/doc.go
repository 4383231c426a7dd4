// Package pkg provides shared utilities for the otgfs driver.
//
// This package contains functionality used by every driver package:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for the driver contract
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with a component attribute:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogDebug(pkg.ComponentBus, "poll", "event", "reset")
//
// # Errors
//
// Driver errors are sentinel values; test them with [errors.Is]:
//
//	if errors.Is(err, pkg.ErrWouldBlock) {
//	    // retry after the next poll
//	}
package pkg
