// Package replay drains the persisted queue against the original endpoints.
//
// A pass sends entries one at a time in capture order, waiting for each
// response before starting the next request. Every attempted entry leaves the
// queue whether it succeeded or failed; failures are reported through the
// error hook and never retried. The shortened queue is written back after
// every attempt, so an interrupted pass resumes with the entries it had not
// reached yet.
package replay
