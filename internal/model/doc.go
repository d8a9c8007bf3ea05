// Package model defines shared data types used across the pond monitor.
//
// Conventions:
//   - Current: float64 amperes on line 1 of the aerator panel
//   - Reading timestamps: int64 seconds since Unix epoch, JSON shape {"_seconds": n}
//   - Receipt times: time.Time in the monitor's wall clock
package model
