package model

import (
	"math"
	"time"
)

// Timestamp is a capture time as emitted by the device API.
type Timestamp struct {
	Seconds int64 `json:"_seconds"` // Seconds since Unix epoch
}

// Time converts the timestamp to a time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, 0)
}

// TimestampOf truncates t to whole seconds.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix()}
}

// Reading is one sensor sample.
type Reading struct {
	Line1     float64   `json:"line1"`     // Line 1 current (A)
	Timestamp Timestamp `json:"timestamp"` // Capture time
}

// Live is the most recent successful live reading.
type Live struct {
	Reading    Reading   // Latest reading
	ReceivedAt time.Time // Monitor wall clock at receipt, display only
}

// Aerators returns the estimated number of running aerators, round(line1 / ampsPerAerator).
// A non-positive calibration yields 0.
func (l Live) Aerators(ampsPerAerator float64) int {
	return AeratorCount(l.Reading.Line1, ampsPerAerator)
}

// AeratorCount converts a line current into a running aerator estimate.
func AeratorCount(line1, ampsPerAerator float64) int {
	if ampsPerAerator <= 0 {
		return 0
	}
	return int(math.Round(line1 / ampsPerAerator))
}
