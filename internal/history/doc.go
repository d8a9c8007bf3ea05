// Package history implements the time-bounded history window and the two
// strategies that fill it.
//
// ServerSourced replaces the window with whatever the device API's history
// endpoint returns. ClientAccumulated builds the window from live readings
// observed by this process and mirrors it to a snapshot store, so it
// survives restarts but never backfills gaps.
package history
