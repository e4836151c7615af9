// Package storage persists string values under string keys in SQLite.
//
// It is the durable local storage backing the submission queue: one table of
// key/value rows where every write replaces the whole value of its key. The
// Store manages the database connection, schema initialization and version
// checks, retries on SQLITE_BUSY so the CLI and the watcher daemon can share
// one database file, and health diagnostics for the CLI.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package storage
