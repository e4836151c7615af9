// Package config loads, normalizes, and validates offlineform configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OFFLINEFORM_API_TOKEN. The Config type centralizes every knob the CLI and
// the watcher daemon need: where the queue database lives, which storage key
// holds the queue, how replayed requests are sent, and how connectivity is
// detected.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
