// Package poller implements the fixed-interval retrieval trigger.
//
// A Poller:
//   - Invokes its function once immediately on Start, then every Interval
//   - Never overlaps invocations; a slow fetch delays the next tick
//   - Guarantees no invocation begins after Stop returns
package poller
