package session

import (
	"context"
	"errors"
	"time"

	"github.com/rickgao/pond-monitor/internal/api"
	"github.com/rickgao/pond-monitor/internal/metrics"
	"github.com/rickgao/pond-monitor/internal/model"
)

// pollLive is the live poller's tick. It runs on the poller goroutine.
func (s *Session) pollLive(ctx context.Context) {
	t := *s.current.Load()
	if t.deviceID == "" {
		s.metrics.Poll(metrics.KindLive, metrics.ResultSkipped)
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.fetcher.GetLive(fetchCtx, t.deviceID)
	s.metrics.ObserveFetch(metrics.KindLive, time.Since(start))
	receivedAt := s.now()

	s.post(ctx, func() {
		s.applyLive(t, resp, err, receivedAt)
	})
}

// pollHistory is the history poller's tick. It runs on the poller goroutine.
func (s *Session) pollHistory(ctx context.Context) {
	t := *s.current.Load()
	if t.deviceID == "" {
		s.metrics.Poll(metrics.KindHistory, metrics.ResultSkipped)
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.fetcher.GetHistory(fetchCtx, t.deviceID)
	s.metrics.ObserveFetch(metrics.KindHistory, time.Since(start))

	s.post(ctx, func() {
		s.applyHistory(t, resp, err)
	})
}

// stale reports whether a result fetched for t no longer matches the
// current selection. Runs on the loop.
func (s *Session) stale(kind string, t target) bool {
	if t.generation == s.generation {
		return false
	}
	s.metrics.Poll(kind, metrics.ResultStale)
	s.logger.Debug("discarding stale response",
		"kind", kind,
		"device", t.deviceID,
		"generation", t.generation,
		"current_generation", s.generation,
	)
	return true
}

// applyLive runs on the loop. Anything other than an ok response with a
// numeric line1 leaves the live value and the window unchanged.
func (s *Session) applyLive(t target, resp *api.LiveResponse, err error, receivedAt time.Time) {
	if s.stale(metrics.KindLive, t) {
		return
	}

	if err != nil {
		if errors.Is(err, api.ErrMalformedResponse) {
			s.metrics.Poll(metrics.KindLive, metrics.ResultNoData)
		} else {
			s.metrics.Poll(metrics.KindLive, metrics.ResultError)
		}
		s.logger.Warn("live fetch failed", "device", t.deviceID, "err", err)
		return
	}

	reading, ok := resp.Reading(receivedAt)
	if !ok {
		s.metrics.Poll(metrics.KindLive, metrics.ResultNoData)
		s.logger.Debug("no live data", "device", t.deviceID, "status", resp.Status)
		return
	}

	s.live = &model.Live{Reading: reading, ReceivedAt: receivedAt}
	s.metrics.Poll(metrics.KindLive, metrics.ResultOK)
	s.metrics.SetLive(reading.Line1, s.live.Aerators(s.cfg.AmpsPerAerator), receivedAt)

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.FetchTimeout)
	defer cancel()
	s.strategy.ApplyLive(ctx, s.window, reading, receivedAt)

	s.publish()
}

// applyHistory runs on the loop. A network failure leaves the window
// unchanged; a malformed body counts as a response without data.
func (s *Session) applyHistory(t target, resp *api.HistoryResponse, err error) {
	if s.stale(metrics.KindHistory, t) {
		return
	}

	if err != nil && !errors.Is(err, api.ErrMalformedResponse) {
		s.metrics.Poll(metrics.KindHistory, metrics.ResultError)
		s.logger.Warn("history fetch failed", "device", t.deviceID, "err", err)
		return
	}

	readings := []model.Reading{}
	if err == nil {
		readings = resp.Readings()
	} else {
		s.logger.Warn("malformed history response", "device", t.deviceID, "err", err)
	}

	if len(readings) == 0 {
		s.metrics.Poll(metrics.KindHistory, metrics.ResultNoData)
	} else {
		s.metrics.Poll(metrics.KindHistory, metrics.ResultOK)
	}

	s.strategy.ApplyHistory(s.window, readings)
	s.publish()
}
