// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Poll outcomes per kind (live, history) and fetch latency
//   - Stale responses discarded after a device change
//   - History window size and latest line current
//   - Snapshot load/save outcomes
package metrics
