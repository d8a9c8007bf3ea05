package session

import (
	"time"

	"github.com/rickgao/pond-monitor/internal/model"
)

// State is an immutable view of the session published after every change.
type State struct {
	SessionID      string          `json:"session_id"`
	DeviceID       string          `json:"device_id"`
	Strategy       string          `json:"strategy"`
	AmpsPerAerator float64         `json:"amps_per_aerator"`
	Live           *LiveView       `json:"live"`
	History        []model.Reading `json:"history"`
	Version        uint64          `json:"version"`
}

// LiveView is the display form of the live value.
type LiveView struct {
	Line1       float64   `json:"line1"`
	Aerators    int       `json:"aerators"`
	CapturedAt  int64     `json:"captured_at"`
	LastUpdated time.Time `json:"last_updated"`
}

func newLiveView(l *model.Live, ampsPerAerator float64) *LiveView {
	if l == nil {
		return nil
	}
	return &LiveView{
		Line1:       l.Reading.Line1,
		Aerators:    l.Aerators(ampsPerAerator),
		CapturedAt:  l.Reading.Timestamp.Seconds,
		LastUpdated: l.ReceivedAt,
	}
}
