// Package capture intercepts form submissions and decides their fate.
//
// While the network is reachable a submission either passes through to the
// caller's normal submit path or, with direct sending enabled, is delivered
// asynchronously with no queuing fallback. While offline the submission is
// appended to the persisted queue for a later replay pass.
package capture
