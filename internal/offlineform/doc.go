// Package offlineform is the entry point for binding forms to the offline
// submission queue and replaying it.
//
// Options carry the per-form configuration: the storage key, the marker class
// that prevents binding a form twice, whether to send directly while online,
// and the callback hooks. Options are explicit values merged over defaults;
// nothing is held in package state.
//
// A Client binds forms with Init, routes their submissions with Submit, and
// drains the queue with Sync. Captures and replay passes on one client never
// overlap. WithSyncLock adds a file lock so replay passes from separate
// processes sharing one database do not overlap either.
package offlineform
