package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/pond-monitor/internal/api"
	"github.com/rickgao/pond-monitor/internal/history"
	"github.com/rickgao/pond-monitor/internal/metrics"
	"github.com/rickgao/pond-monitor/internal/model"
	"github.com/rickgao/pond-monitor/internal/poller"
)

// Fetcher retrieves live and history data for a device.
type Fetcher interface {
	GetLive(ctx context.Context, deviceID string) (*api.LiveResponse, error)
	GetHistory(ctx context.Context, deviceID string) (*api.HistoryResponse, error)
}

// Config holds session configuration.
type Config struct {
	DeviceID        string        // Initial device
	LiveInterval    time.Duration // Live poll cadence (default: 5s)
	HistoryInterval time.Duration // History poll cadence (default: 60s)
	FetchTimeout    time.Duration // Per-request timeout (default: 10s)
	AmpsPerAerator  float64       // 0 = strategy default
	Retention       time.Duration // History window span (default: 48h)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LiveInterval:    5 * time.Second,
		HistoryInterval: 60 * time.Second,
		FetchTimeout:    10 * time.Second,
		Retention:       history.DefaultRetention,
	}
}

const pollerStopTimeout = 5 * time.Second

// ErrNotRunning is returned by operations on a session that is not started.
var ErrNotRunning = errors.New("session not running")

// target is the device selection a tick fetches for.
type target struct {
	deviceID   string
	generation uint64
}

// Session is the single owner of device selection, live value and history.
type Session struct {
	id       uuid.UUID
	cfg      Config
	fetcher  Fetcher
	strategy history.Strategy
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	events   chan func()
	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}

	// Owned by the loop goroutine.
	deviceID      string
	generation    uint64
	window        *history.Window
	live          *model.Live
	version       uint64
	livePoller    *poller.Poller
	historyPoller *poller.Poller

	current atomic.Pointer[target]
	state   atomic.Pointer[State]

	watchMu     sync.Mutex
	watchers    map[chan State]struct{}
	watchClosed bool
	stopped     chan struct{} // closed with the watchers on Stop
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithClock overrides the wall clock used to stamp readings.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New creates a Session. Call Start to restore history and begin polling.
func New(cfg Config, fetcher Fetcher, strategy history.Strategy, opts ...Option) *Session {
	defaults := DefaultConfig()
	if cfg.LiveInterval <= 0 {
		cfg.LiveInterval = defaults.LiveInterval
	}
	if cfg.HistoryInterval <= 0 {
		cfg.HistoryInterval = defaults.HistoryInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaults.FetchTimeout
	}
	if cfg.AmpsPerAerator <= 0 {
		cfg.AmpsPerAerator = strategy.DefaultAmpsPerAerator()
	}

	s := &Session{
		id:       uuid.New(),
		cfg:      cfg,
		fetcher:  fetcher,
		strategy: strategy,
		logger:   slog.Default(),
		now:      time.Now,
		events:   make(chan func(), 16),
		ctx:      context.Background(),
		deviceID: cfg.DeviceID,
		window:   history.NewWindow(cfg.Retention),
		watchers: make(map[chan State]struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id.String())

	s.current.Store(&target{deviceID: s.deviceID})
	s.publish()
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id.String()
}

// Start restores the history window, then starts the event loop and the
// pollers for the configured device.
func (s *Session) Start(ctx context.Context) error {
	if s.loopDone != nil {
		return errors.New("session already started")
	}

	s.strategy.Restore(ctx, s.window)
	restored := s.window.Len()
	s.publish()

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.loopDone = make(chan struct{})
	go s.loop()

	if err := s.do(ctx, s.startPollers); err != nil {
		s.cancel()
		<-s.loopDone
		return err
	}

	s.logger.Info("session started",
		"device", s.cfg.DeviceID,
		"strategy", s.strategy.Name(),
		"amps_per_aerator", s.cfg.AmpsPerAerator,
		"live_interval", s.cfg.LiveInterval,
		"restored_readings", restored,
	)
	return nil
}

// Stop stops both pollers, then the event loop. No fetch result is applied
// after Stop returns.
func (s *Session) Stop(ctx context.Context) error {
	if s.loopDone == nil {
		return nil
	}

	err := s.do(ctx, func() {
		s.stopPollers()
		// Results already queued by the stopped pollers are now stale.
		s.generation++
	})
	if errors.Is(err, ErrNotRunning) {
		return nil
	}

	s.cancel()

	select {
	case <-s.loopDone:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.closeWatchers()
	s.logger.Info("session stopped")
	return err
}

// SetDevice switches the polled device. Old pollers are stopped before the
// new ones start, and responses still in flight for the old device are
// discarded. Setting the current device again is a no-op.
func (s *Session) SetDevice(ctx context.Context, deviceID string) error {
	return s.do(ctx, func() {
		if deviceID == s.deviceID {
			return
		}

		s.stopPollers()

		previous := s.deviceID
		s.generation++
		s.deviceID = deviceID
		s.live = nil
		s.current.Store(&target{deviceID: deviceID, generation: s.generation})

		s.metrics.DeviceChanged()
		s.logger.Info("device changed",
			"from", previous,
			"to", deviceID,
			"generation", s.generation,
		)

		s.publish()
		s.startPollers()
	})
}

// State returns the latest published state.
func (s *Session) State() State {
	return *s.state.Load()
}

// Watch returns a channel receiving the latest state after every change.
// Slow readers only see the newest value. The channel closes when ctx is
// done or the session stops.
func (s *Session) Watch(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	s.watchMu.Lock()
	if s.watchClosed {
		s.watchMu.Unlock()
		close(ch)
		return ch
	}
	s.watchers[ch] = struct{}{}
	s.watchMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.stopped:
		}
		s.watchMu.Lock()
		defer s.watchMu.Unlock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
		}
	}()

	return ch
}

// loop runs posted events until the session is cancelled.
func (s *Session) loop() {
	defer close(s.loopDone)

	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.events:
			fn()
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	if s.loopDone == nil {
		return ErrNotRunning
	}

	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case s.events <- wrapped:
	case <-s.loopDone:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-s.loopDone:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn on the loop without waiting. It gives up when ctx is done,
// which is how a stopping poller abandons its result.
func (s *Session) post(ctx context.Context, fn func()) {
	select {
	case s.events <- fn:
	case <-ctx.Done():
	case <-s.loopDone:
	}
}

// startPollers runs on the loop.
func (s *Session) startPollers() {
	s.livePoller = poller.New(poller.Config{
		Name:     metrics.KindLive,
		Interval: s.cfg.LiveInterval,
	}, s.pollLive, s.logger)

	if err := s.livePoller.Start(s.ctx); err != nil {
		s.logger.Error("failed to start live poller", "err", err)
	}

	if !s.strategy.PollsHistory() {
		return
	}

	s.historyPoller = poller.New(poller.Config{
		Name:     metrics.KindHistory,
		Interval: s.cfg.HistoryInterval,
	}, s.pollHistory, s.logger)

	if err := s.historyPoller.Start(s.ctx); err != nil {
		s.logger.Error("failed to start history poller", "err", err)
	}
}

// stopPollers runs on the loop.
func (s *Session) stopPollers() {
	ctx, cancel := context.WithTimeout(context.Background(), pollerStopTimeout)
	defer cancel()

	for _, p := range []*poller.Poller{s.livePoller, s.historyPoller} {
		if p == nil {
			continue
		}
		if err := p.Stop(ctx); err != nil {
			s.logger.Warn("poller did not stop in time", "err", err)
		}
	}
	s.livePoller, s.historyPoller = nil, nil
}

// publish runs on the loop (or before it starts).
func (s *Session) publish() {
	s.version++
	st := &State{
		SessionID:      s.id.String(),
		DeviceID:       s.deviceID,
		Strategy:       s.strategy.Name(),
		AmpsPerAerator: s.cfg.AmpsPerAerator,
		Live:           newLiveView(s.live, s.cfg.AmpsPerAerator),
		History:        s.window.Readings(),
		Version:        s.version,
	}
	s.state.Store(st)
	s.metrics.SetHistoryLen(len(st.History))

	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for ch := range s.watchers {
		// Drop an unread older state so the newest always fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- *st:
		default:
		}
	}
}

func (s *Session) closeWatchers() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watchClosed {
		return
	}
	s.watchClosed = true
	for ch := range s.watchers {
		delete(s.watchers, ch)
		close(ch)
	}
	close(s.stopped)
}
