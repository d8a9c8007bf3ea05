package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.MaxRetries != nil && *c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.Poller.LiveInterval <= 0 {
		return errors.New("poller.live_interval must be > 0")
	}
	if c.Poller.HistoryInterval <= 0 {
		return errors.New("poller.history_interval must be > 0")
	}

	switch c.History.Strategy {
	case StrategyServer, StrategyClient:
	default:
		return fmt.Errorf("history.strategy must be %q or %q, got %q", StrategyServer, StrategyClient, c.History.Strategy)
	}
	if c.History.Retention <= 0 {
		return errors.New("history.retention must be > 0")
	}

	if c.Calibration.AmpsPerAerator < 0 {
		return fmt.Errorf("calibration.amps_per_aerator must be >= 0, got %v", c.Calibration.AmpsPerAerator)
	}

	if err := c.Snapshot.validate(); err != nil {
		return err
	}

	if c.Dashboard.Addr == "" {
		return errors.New("dashboard.addr is required")
	}
	if !strings.HasPrefix(c.Dashboard.MetricsPath, "/") {
		return fmt.Errorf("dashboard.metrics_path must start with /, got %q", c.Dashboard.MetricsPath)
	}
	if c.Dashboard.DeviceChangeRate != nil && *c.Dashboard.DeviceChangeRate < 0 {
		return errors.New("dashboard.device_change_rate must be non-negative")
	}
	if c.Dashboard.DeviceChangeBurst < 1 {
		return errors.New("dashboard.device_change_burst must be at least 1")
	}

	return nil
}

func (s *SnapshotConfig) validate() error {
	if s.Key == "" {
		return errors.New("snapshot.key is required")
	}
	switch s.Backend {
	case BackendNone:
	case BackendFile:
		if s.File.Dir == "" {
			return errors.New("snapshot.file.dir is required")
		}
	case BackendRedis:
		if s.Redis.Addr == "" {
			return errors.New("snapshot.redis.addr is required")
		}
		if s.Redis.TTL < 0 {
			return errors.New("snapshot.redis.ttl must be >= 0")
		}
	case BackendPostgres:
		if err := s.Postgres.DB.validate("snapshot.postgres"); err != nil {
			return err
		}
		if s.Postgres.Table == "" {
			return errors.New("snapshot.postgres.table is required")
		}
	default:
		return fmt.Errorf("snapshot.backend must be one of file, redis, postgres, none, got %q", s.Backend)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	return nil
}

// ParseLevel maps a log.level value to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", level)
	}
}
