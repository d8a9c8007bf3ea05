package history

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/rickgao/pond-monitor/internal/config"
	"github.com/rickgao/pond-monitor/internal/metrics"
	"github.com/rickgao/pond-monitor/internal/model"
	"github.com/rickgao/pond-monitor/internal/snapshot"
)

// ClientAccumulated builds the window from live readings and writes it
// through to a snapshot store after every change.
type ClientAccumulated struct {
	store   snapshot.Store
	key     string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClientAccumulated creates the write-through strategy. A nil store disables persistence.
func NewClientAccumulated(store snapshot.Store, key string, m *metrics.Metrics, logger *slog.Logger) *ClientAccumulated {
	if store == nil {
		store = snapshot.NopStore{}
	}
	if key == "" {
		key = config.DefaultSnapshotKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientAccumulated{
		store:   store,
		key:     key,
		metrics: m,
		logger:  logger,
	}
}

func (*ClientAccumulated) Name() string { return config.StrategyClient }

func (*ClientAccumulated) DefaultAmpsPerAerator() float64 { return ClientAccumulatedAmpsPerAerator }

func (*ClientAccumulated) PollsHistory() bool { return false }

// Restore loads the last snapshot as the initial window.
func (c *ClientAccumulated) Restore(ctx context.Context, w *Window) {
	data, err := c.store.Load(ctx, c.key)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			c.logger.Info("no history snapshot, starting empty",
				"store", c.store.Name(),
				"key", c.key,
			)
			c.metrics.Snapshot("load", metrics.SnapshotNotFound)
			return
		}
		c.logger.Warn("failed to load history snapshot, starting empty",
			"store", c.store.Name(),
			"key", c.key,
			"err", err,
		)
		c.metrics.Snapshot("load", metrics.SnapshotError)
		return
	}

	var readings []model.Reading
	if err := json.Unmarshal(data, &readings); err != nil {
		c.logger.Warn("corrupt history snapshot, starting empty",
			"store", c.store.Name(),
			"key", c.key,
			"err", err,
		)
		c.metrics.Snapshot("load", metrics.SnapshotCorrupt)
		return
	}

	w.Replace(readings)
	c.metrics.Snapshot("load", metrics.SnapshotOK)
	c.logger.Info("history snapshot restored",
		"store", c.store.Name(),
		"readings", len(readings),
	)
}

// ApplyLive appends the live measurement stamped with the local clock,
// prunes by age, then overwrites the snapshot.
func (c *ClientAccumulated) ApplyLive(ctx context.Context, w *Window, r model.Reading, now time.Time) {
	w.Append(model.Reading{
		Line1:     r.Line1,
		Timestamp: model.TimestampOf(now),
	})

	if removed := w.Prune(now); removed > 0 {
		c.logger.Debug("pruned expired readings", "removed", removed)
	}

	c.save(ctx, w)
}

// ApplyHistory is a no-op; this strategy never reads server history.
func (*ClientAccumulated) ApplyHistory(*Window, []model.Reading) {}

func (c *ClientAccumulated) save(ctx context.Context, w *Window) {
	data, err := json.Marshal(w.Readings())
	if err != nil {
		c.logger.Error("failed to encode history snapshot", "err", err)
		c.metrics.Snapshot("save", metrics.SnapshotError)
		return
	}

	if err := c.store.Save(ctx, c.key, data); err != nil {
		c.logger.Warn("failed to save history snapshot",
			"store", c.store.Name(),
			"key", c.key,
			"err", err,
		)
		c.metrics.Snapshot("save", metrics.SnapshotError)
		return
	}

	c.metrics.Snapshot("save", metrics.SnapshotOK)
}
