// Package queue persists captured form submissions as one ordered record.
//
// The queue is stored as a single serialized value under a well-known key of
// a key/value store and is always read and written as a whole: capture loads
// it, appends one entry at the tail, and writes it back; replay drains it
// front to back, rewriting the shortened record after every attempt.
//
// The record is versioned ({"version":1,"entries":[...]}). Bare JSON arrays
// written by the browser plugin are still accepted on read. Null or empty
// placeholder entries are filtered on every read and are never treated as
// corruption. Entries read without an identifier receive one so replay can
// remove entries by identity rather than by position.
package queue
