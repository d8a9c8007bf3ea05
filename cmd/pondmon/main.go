package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/pond-monitor/internal/api"
	"github.com/rickgao/pond-monitor/internal/config"
	"github.com/rickgao/pond-monitor/internal/dashboard"
	"github.com/rickgao/pond-monitor/internal/history"
	"github.com/rickgao/pond-monitor/internal/metrics"
	"github.com/rickgao/pond-monitor/internal/session"
	"github.com/rickgao/pond-monitor/internal/snapshot"
	"github.com/rickgao/pond-monitor/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pondmon: %v\n", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting pondmon", append(version.LogArgs(), "config", *configPath)...)

	if err := run(cfg, logger); err != nil {
		logger.Error("pondmon failed", "error", err)
		os.Exit(1)
	}

	logger.Info("pondmon stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadAndValidate(path)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("configuration loaded",
		"device", cfg.Device.ID,
		"api_url", cfg.API.BaseURL,
		"strategy", cfg.History.Strategy,
		"snapshot_backend", cfg.Snapshot.Backend,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close snapshot store", "error", err)
		}
	}()

	strategy, err := history.New(cfg, store, m, logger)
	if err != nil {
		return err
	}

	client := api.NewClient(
		cfg.API.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(*cfg.API.MaxRetries, cfg.API.RetryBackoff),
	)

	sess := session.New(session.Config{
		DeviceID:        cfg.Device.ID,
		LiveInterval:    cfg.Poller.LiveInterval,
		HistoryInterval: cfg.Poller.HistoryInterval,
		FetchTimeout:    cfg.Poller.FetchTimeout,
		AmpsPerAerator:  cfg.Calibration.AmpsPerAerator,
		Retention:       cfg.History.Retention,
	}, client, strategy,
		session.WithLogger(logger),
		session.WithMetrics(m),
	)

	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	dash := dashboard.New(dashboard.Config{
		Addr:              cfg.Dashboard.Addr,
		MetricsPath:       cfg.Dashboard.MetricsPath,
		DeviceChangeRate:  *cfg.Dashboard.DeviceChangeRate,
		DeviceChangeBurst: cfg.Dashboard.DeviceChangeBurst,
	}, sess, reg, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dash.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sess.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("stop session: %w", err)
		}
		return nil
	})

	logger.Info("pondmon running",
		"session", sess.ID(),
		"dashboard", cfg.Dashboard.Addr,
	)

	err = g.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openStore opens the snapshot store. Only the client strategy persists
// history, so the server strategy gets a no-op store.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (snapshot.Store, error) {
	if cfg.History.Strategy != config.StrategyClient {
		return snapshot.NopStore{}, nil
	}

	store, err := snapshot.Open(ctx, cfg.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	logger.Info("snapshot store ready",
		"backend", store.Name(),
		"key", cfg.Snapshot.Key,
	)
	return store, nil
}
