package history

import (
	"context"
	"time"

	"github.com/rickgao/pond-monitor/internal/config"
	"github.com/rickgao/pond-monitor/internal/model"
)

// ServerSourced trusts the device API as the system of record: every
// history response replaces the window wholesale.
type ServerSourced struct{}

// NewServerSourced creates the read-through strategy.
func NewServerSourced() *ServerSourced {
	return &ServerSourced{}
}

func (*ServerSourced) Name() string { return config.StrategyServer }

func (*ServerSourced) DefaultAmpsPerAerator() float64 { return ServerSourcedAmpsPerAerator }

func (*ServerSourced) PollsHistory() bool { return true }

// Restore is a no-op; the first history poll fills the window.
func (*ServerSourced) Restore(context.Context, *Window) {}

// ApplyLive is a no-op; live readings never enter the window.
func (*ServerSourced) ApplyLive(context.Context, *Window, model.Reading, time.Time) {}

// ApplyHistory replaces the window with the server's list. The server
// already applied retention, so nothing is filtered. An empty list clears it.
func (*ServerSourced) ApplyHistory(w *Window, readings []model.Reading) {
	w.Replace(readings)
}
