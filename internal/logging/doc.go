// Package logging assembles structured slog loggers used across offlineform.
//
// It owns the console and JSON handlers, level parsing, and output plumbing,
// and exposes typed attribute helpers plus the standard field keys so capture,
// replay, and daemon code emit log lines with the same shape. The daemon logs
// human-readable lines to the terminal while mirroring JSON records into its
// log file; the CLI only writes to the terminal.
//
// A no-op logger is provided for tests and for wiring code that cannot fail.
package logging
