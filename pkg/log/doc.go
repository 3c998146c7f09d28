// SPDX-License-Identifier: BSD-3-Clause

// Package log provides structured logging for the maintenance controller.
// It wraps the standard library's log/slog with a zerolog console backend
// and fans out the same records to OpenTelemetry, so a single logger call
// ends up both human-readable on stdout and
// queryable as structured telemetry.
//
// Construct the process-wide logger once with NewDefaultLogger and scope
// it per package with Logger.With("component", "fsm"), the same pattern
// every service in this repository follows.
package log
