package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/pond-monitor/internal/config"
	"github.com/rickgao/pond-monitor/internal/metrics"
	"github.com/rickgao/pond-monitor/internal/model"
	"github.com/rickgao/pond-monitor/internal/snapshot"
)

// Calibration defaults of the two dashboard variants, in amperes per
// running aerator. Neither is canonical.
const (
	ServerSourcedAmpsPerAerator     = 2.75
	ClientAccumulatedAmpsPerAerator = 3.15
)

// Strategy decides how the history window is acquired.
// All methods are called from the session loop only.
type Strategy interface {
	// Name identifies the strategy in logs and state.
	Name() string

	// DefaultAmpsPerAerator is used when no calibration is configured.
	DefaultAmpsPerAerator() float64

	// PollsHistory reports whether the history endpoint should be polled.
	PollsHistory() bool

	// Restore fills w before the first poll. It never fails; problems are
	// logged and leave w empty.
	Restore(ctx context.Context, w *Window)

	// ApplyLive is called with every successful live reading.
	ApplyLive(ctx context.Context, w *Window, r model.Reading, now time.Time)

	// ApplyHistory is called with every completed history retrieval that
	// reached the server. readings is empty when the server had no data.
	ApplyHistory(w *Window, readings []model.Reading)
}

// New builds the strategy named by cfg.History.Strategy.
func New(cfg *config.Config, store snapshot.Store, m *metrics.Metrics, logger *slog.Logger) (Strategy, error) {
	switch cfg.History.Strategy {
	case config.StrategyServer:
		return NewServerSourced(), nil
	case config.StrategyClient:
		return NewClientAccumulated(store, cfg.Snapshot.Key, m, logger), nil
	default:
		return nil, fmt.Errorf("unknown history strategy %q", cfg.History.Strategy)
	}
}
