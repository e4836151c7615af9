// Package main hosts the offlineform CLI entrypoint and command graph.
//
// The Cobra-based command tree captures submissions into the local queue,
// runs replay passes, inspects and maintains the persisted queue, runs the
// connectivity watcher in the foreground, and scaffolds configuration.
// Commands work directly against the SQLite store; the cross-process sync
// lock keeps a foreground replay from overlapping one run by the daemon.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is only surfaced here through commands or flags.
package main
