package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Func is invoked on every tick. ctx is cancelled when the poller stops.
type Func func(ctx context.Context)

// Config holds poller configuration.
type Config struct {
	Name     string        // Used in logs (e.g. "live", "history")
	Interval time.Duration // Tick interval
}

// ErrAlreadyStarted is returned by Start on a running poller.
var ErrAlreadyStarted = errors.New("poller already started")

// Poller invokes a function immediately and then on a fixed interval.
type Poller struct {
	cfg    Config
	fn     Func
	logger *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New creates a new Poller.
func New(cfg Config, fn Func, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:    cfg,
		fn:     fn,
		logger: logger,
	}
}

// Start begins the polling loop. A Poller can be started once.
func (p *Poller) Start(ctx context.Context) error {
	if p.cfg.Interval <= 0 {
		return errors.New("poller interval must be > 0")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil || p.stopped {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(runCtx, p.done)

	p.logger.Debug("poller started",
		"poller", p.cfg.Name,
		"interval", p.cfg.Interval,
	)

	return nil
}

// Stop cancels the loop and waits for an in-flight invocation to return.
// It is safe to call more than once, and before Start.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.stopped = true
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		p.logger.Debug("poller stopped", "poller", p.cfg.Name)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	if ctx.Err() != nil {
		return
	}
	p.fn(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Both cases can be ready at once; cancellation wins.
			if ctx.Err() != nil {
				return
			}
			p.fn(ctx)
		}
	}
}
