package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
api:
  base_url: https://demo.example.com
  timeout: 5s
device:
  id: pond-7
poller:
  live_interval: 2s
history:
  strategy: client
calibration:
  amps_per_aerator: 3.15
snapshot:
  backend: redis
  redis:
    addr: redis:6379
    ttl: 72h
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "https://demo.example.com" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "https://demo.example.com")
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("API.Timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.Device.ID != "pond-7" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "pond-7")
	}
	if cfg.Poller.LiveInterval != 2*time.Second {
		t.Errorf("Poller.LiveInterval = %v, want 2s", cfg.Poller.LiveInterval)
	}
	if cfg.History.Strategy != StrategyClient {
		t.Errorf("History.Strategy = %q, want %q", cfg.History.Strategy, StrategyClient)
	}
	if cfg.Calibration.AmpsPerAerator != 3.15 {
		t.Errorf("Calibration.AmpsPerAerator = %v, want 3.15", cfg.Calibration.AmpsPerAerator)
	}
	if cfg.Snapshot.Redis.TTL != 72*time.Hour {
		t.Errorf("Snapshot.Redis.TTL = %v, want 72h", cfg.Snapshot.Redis.TTL)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_SNAPSHOT_PASSWORD", "secret123")

	yaml := `
history:
  strategy: client
snapshot:
  backend: postgres
  postgres:
    host: localhost
    name: pond
    user: pond
    password: ${TEST_SNAPSHOT_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Snapshot.Postgres.DB.Password != "secret123" {
		t.Errorf("Snapshot.Postgres.DB.Password = %q, want %q", cfg.Snapshot.Postgres.DB.Password, "secret123")
	}
	if cfg.Snapshot.Postgres.DB.Port != DefaultDBPort {
		t.Errorf("Snapshot.Postgres.DB.Port = %d, want default %d", cfg.Snapshot.Postgres.DB.Port, DefaultDBPort)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "log:\n  level: debug\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want default %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.Device.ID != DefaultDeviceID {
		t.Errorf("Device.ID = %q, want default %q", cfg.Device.ID, DefaultDeviceID)
	}
	if cfg.Poller.LiveInterval != DefaultLiveInterval {
		t.Errorf("Poller.LiveInterval = %v, want default %v", cfg.Poller.LiveInterval, DefaultLiveInterval)
	}
	if cfg.Poller.HistoryInterval != DefaultHistoryInterval {
		t.Errorf("Poller.HistoryInterval = %v, want default %v", cfg.Poller.HistoryInterval, DefaultHistoryInterval)
	}
	if cfg.History.Retention != 172800*time.Second {
		t.Errorf("History.Retention = %v, want 172800s", cfg.History.Retention)
	}
	if cfg.Snapshot.Key != DefaultSnapshotKey {
		t.Errorf("Snapshot.Key = %q, want default %q", cfg.Snapshot.Key, DefaultSnapshotKey)
	}
	if cfg.Calibration.AmpsPerAerator != 0 {
		t.Errorf("Calibration.AmpsPerAerator = %v, want 0 (strategy default)", cfg.Calibration.AmpsPerAerator)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}
}

func TestLoadWithDefaults_ExplicitZeroKept(t *testing.T) {
	path := writeTempFile(t, "api:\n  max_retries: 0\ndashboard:\n  device_change_rate: 0\n")

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.API.MaxRetries == nil || *cfg.API.MaxRetries != 0 {
		t.Errorf("API.MaxRetries = %v, want explicit 0", cfg.API.MaxRetries)
	}
	if cfg.Dashboard.DeviceChangeRate == nil || *cfg.Dashboard.DeviceChangeRate != 0 {
		t.Errorf("Dashboard.DeviceChangeRate = %v, want explicit 0 (unlimited)", cfg.Dashboard.DeviceChangeRate)
	}

	cfg = Default()
	if *cfg.API.MaxRetries != DefaultMaxRetries {
		t.Errorf("default API.MaxRetries = %d, want %d", *cfg.API.MaxRetries, DefaultMaxRetries)
	}
	if *cfg.Dashboard.DeviceChangeRate != DefaultDeviceChangeRate {
		t.Errorf("default Dashboard.DeviceChangeRate = %v, want %v", *cfg.Dashboard.DeviceChangeRate, DefaultDeviceChangeRate)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "defaults",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.API.BaseURL = "/api" },
			wantErr: `api.base_url must be an absolute URL, got "/api"`,
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.History.Strategy = "hybrid" },
			wantErr: `history.strategy must be "server" or "client", got "hybrid"`,
		},
		{
			name:    "negative calibration",
			mutate:  func(c *Config) { c.Calibration.AmpsPerAerator = -2 },
			wantErr: "calibration.amps_per_aerator must be >= 0, got -2",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: `log.level must be debug, info, warn or error, got "trace"`,
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Snapshot.Backend = "s3" },
			wantErr: `snapshot.backend must be one of file, redis, postgres, none, got "s3"`,
		},
		{
			name:    "postgres without host",
			mutate:  func(c *Config) { c.Snapshot.Backend = BackendPostgres },
			wantErr: "snapshot.postgres.host is required",
		},
		{
			name: "postgres without password",
			mutate: func(c *Config) {
				c.Snapshot.Backend = BackendPostgres
				c.Snapshot.Postgres.DB.Host = "localhost"
				c.Snapshot.Postgres.DB.Name = "pond"
				c.Snapshot.Postgres.DB.User = "pond"
			},
			wantErr: "snapshot.postgres.password is required",
		},
		{
			name:    "metrics path without slash",
			mutate:  func(c *Config) { c.Dashboard.MetricsPath = "metrics" },
			wantErr: `dashboard.metrics_path must start with /, got "metrics"`,
		},
		{
			name:    "zero device change burst",
			mutate:  func(c *Config) { c.Dashboard.DeviceChangeBurst = 0 },
			wantErr: "dashboard.device_change_burst must be at least 1",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { n := -1; c.API.MaxRetries = &n },
			wantErr: "api.max_retries must be >= 0",
		},
		{
			name:    "negative device change rate",
			mutate:  func(c *Config) { r := -0.5; c.Dashboard.DeviceChangeRate = &r },
			wantErr: "dashboard.device_change_rate must be non-negative",
		},
		{
			name:    "zero retries allowed",
			mutate:  func(c *Config) { n := 0; c.API.MaxRetries = &n },
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	if err != nil {
		t.Fatalf("ParseLevel failed: %v", err)
	}
	if lvl != slog.LevelWarn {
		t.Errorf("ParseLevel(WARN) = %v, want %v", lvl, slog.LevelWarn)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
