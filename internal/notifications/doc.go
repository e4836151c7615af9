// Package notifications pushes replay outcomes to ntfy.
//
// The ntfy implementation posts plain-text messages to the topic URL from
// config.toml and degrades to a no-op when no topic is configured. Sync and
// error messages can be switched off independently so a noisy flaky network
// does not page anyone.
package notifications
