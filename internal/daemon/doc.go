// Package daemon coordinates the long-running offlineform watcher process.
//
// It wires configuration, the SQLite-backed queue, connectivity detection,
// and notifications into a single lifecycle with flock-based locking to
// prevent multiple instances. While running, the daemon replays the queue
// whenever connectivity is restored (polling probe plus udev network
// interface events) and exposes a local HTTP API through which other
// processes submit forms, trigger a replay pass, and inspect the queue.
//
// Keep orchestration here: capture and replay semantics live in their own
// packages while the daemon owns startup, shutdown, and triggers.
package daemon
