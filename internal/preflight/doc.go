// Package preflight runs environment checks before the CLI or daemon touches
// the queue: the data directory must be usable and, when connectivity is
// detected automatically, the probe endpoint should answer.
package preflight
