// Package dashboard serves the monitor's read-only HTTP surface: JSON state,
// an SVG history chart, a WebSocket state feed, health and metrics. The only
// write is the device selector.
package dashboard
