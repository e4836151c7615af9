// Package logs reads the daemon's JSON log file for the CLI.
//
// Tail returns the last N lines or everything after a byte offset, and can
// poll for new lines in follow mode with bounded memory. ParseRecord turns one
// JSON line into a Record that can be filtered by level or event type and
// rendered in the same single-line shape the console logger prints.
package logs
