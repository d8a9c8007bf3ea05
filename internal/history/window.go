package history

import (
	"time"

	"github.com/rickgao/pond-monitor/internal/model"
)

// DefaultRetention is the span of readings kept in the window (172800 s).
const DefaultRetention = 48 * time.Hour

// Window is an insertion-ordered, time-bounded sequence of readings.
// It is not safe for concurrent use; the session loop owns it.
type Window struct {
	retention time.Duration
	readings  []model.Reading
}

// NewWindow creates an empty window. A non-positive retention selects DefaultRetention.
func NewWindow(retention time.Duration) *Window {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Window{retention: retention}
}

// Retention returns the configured retention period.
func (w *Window) Retention() time.Duration {
	return w.retention
}

// Cutoff returns the oldest timestamp (epoch seconds) kept at now.
func (w *Window) Cutoff(now time.Time) int64 {
	return now.Unix() - int64(w.retention/time.Second)
}

// Append adds r at the end without pruning.
func (w *Window) Append(r model.Reading) {
	w.readings = append(w.readings, r)
}

// Prune drops every reading older than the cutoff and returns how many
// were removed. It scans the whole window and keeps the original order,
// so out-of-order or duplicate timestamps are handled.
func (w *Window) Prune(now time.Time) int {
	cutoff := w.Cutoff(now)

	kept := make([]model.Reading, 0, len(w.readings))
	for _, r := range w.readings {
		if r.Timestamp.Seconds >= cutoff {
			kept = append(kept, r)
		}
	}

	removed := len(w.readings) - len(kept)
	w.readings = kept
	return removed
}

// Replace swaps the contents for a copy of readings, unfiltered.
func (w *Window) Replace(readings []model.Reading) {
	w.readings = append(make([]model.Reading, 0, len(readings)), readings...)
}

// Readings returns a copy of the contents. The result is never nil.
func (w *Window) Readings() []model.Reading {
	return append(make([]model.Reading, 0, len(w.readings)), w.readings...)
}

// Len returns the number of readings held.
func (w *Window) Len() int {
	return len(w.readings)
}
