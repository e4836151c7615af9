// Package connectivity answers whether the network is reachable and notices
// when it comes back.
//
// A Checker reports the current state. Prober performs the real check with a
// HEAD request against a probe URL, while Static pins the answer for tests and
// for the forced online/offline configuration modes. Watcher polls a Checker
// and fires a restore callback on every offline to online transition. The
// NetlinkMonitor listens for udev network interface events and nudges the
// watcher so restoration is noticed without waiting for the next poll.
package connectivity
