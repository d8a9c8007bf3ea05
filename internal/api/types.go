package api

import (
	"encoding/json"
	"time"

	"github.com/rickgao/pond-monitor/internal/model"
)

// StatusOK is the status discriminator of a successful response.
const StatusOK = "ok"

// LiveResponse from GET /api/data/{deviceId}
type LiveResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// LiveData is the payload of a successful live response.
type LiveData struct {
	Line1     *float64         `json:"line1"`
	Timestamp *model.Timestamp `json:"timestamp,omitempty"`
}

// Reading extracts the live reading. It reports false unless the status is
// "ok" and the payload carries a numeric line1. The capture time falls back
// to receivedAt when the payload has no timestamp.
func (r *LiveResponse) Reading(receivedAt time.Time) (model.Reading, bool) {
	if r == nil || r.Status != StatusOK || len(r.Data) == 0 {
		return model.Reading{}, false
	}

	var data LiveData
	if err := json.Unmarshal(r.Data, &data); err != nil || data.Line1 == nil {
		return model.Reading{}, false
	}

	ts := model.TimestampOf(receivedAt)
	if data.Timestamp != nil && data.Timestamp.Seconds > 0 {
		ts = *data.Timestamp
	}

	return model.Reading{Line1: *data.Line1, Timestamp: ts}, true
}

// HistoryResponse from GET /api/history/{deviceId}
type HistoryResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Readings returns the server's history list. Any status other than "ok",
// a payload that is not a list of readings, or an empty list all yield an
// empty, non-nil slice: the device has no usable recent history.
func (r *HistoryResponse) Readings() []model.Reading {
	if r == nil || r.Status != StatusOK || len(r.Data) == 0 {
		return []model.Reading{}
	}

	var readings []model.Reading
	if err := json.Unmarshal(r.Data, &readings); err != nil || len(readings) == 0 {
		return []model.Reading{}
	}

	return readings
}
