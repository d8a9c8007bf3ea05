package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLogLevel          = "info"
	DefaultBaseURL           = "https://www.gfiotsolutions.com"
	DefaultAPITimeout        = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultRetryBackoff      = 1 * time.Second
	DefaultDeviceID          = "vishnu"
	DefaultLiveInterval      = 5 * time.Second
	DefaultHistoryInterval   = 60 * time.Second
	DefaultFetchTimeout      = 10 * time.Second
	DefaultStrategy          = StrategyServer
	DefaultRetention         = 48 * time.Hour
	DefaultSnapshotBackend   = BackendFile
	DefaultSnapshotKey       = "historyData"
	DefaultSnapshotDir       = "./data"
	DefaultRedisAddr         = "localhost:6379"
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 4
	DefaultSnapshotTable     = "pondmon_snapshots"
	DefaultDashboardAddr     = ":8080"
	DefaultMetricsPath       = "/metrics"
	DefaultDeviceChangeRate  = 1.0
	DefaultDeviceChangeBurst = 5
)

// History strategies.
const (
	StrategyServer = "server"
	StrategyClient = "client"
)

// Snapshot backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == nil {
		n := DefaultMaxRetries
		c.API.MaxRetries = &n
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	// An empty device id in YAML is indistinguishable from a missing one.
	// Operators clear the device at runtime through the dashboard instead.
	if c.Device.ID == "" {
		c.Device.ID = DefaultDeviceID
	}

	// Poller defaults
	if c.Poller.LiveInterval == 0 {
		c.Poller.LiveInterval = DefaultLiveInterval
	}
	if c.Poller.HistoryInterval == 0 {
		c.Poller.HistoryInterval = DefaultHistoryInterval
	}
	if c.Poller.FetchTimeout == 0 {
		c.Poller.FetchTimeout = DefaultFetchTimeout
	}

	// History defaults
	if c.History.Strategy == "" {
		c.History.Strategy = DefaultStrategy
	}
	if c.History.Retention == 0 {
		c.History.Retention = DefaultRetention
	}

	// Snapshot defaults
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = DefaultSnapshotBackend
	}
	if c.Snapshot.Key == "" {
		c.Snapshot.Key = DefaultSnapshotKey
	}
	if c.Snapshot.File.Dir == "" {
		c.Snapshot.File.Dir = DefaultSnapshotDir
	}
	if c.Snapshot.Redis.Addr == "" {
		c.Snapshot.Redis.Addr = DefaultRedisAddr
	}
	applyDBDefaults(&c.Snapshot.Postgres.DB)
	if c.Snapshot.Postgres.Table == "" {
		c.Snapshot.Postgres.Table = DefaultSnapshotTable
	}

	// Dashboard defaults
	if c.Dashboard.Addr == "" {
		c.Dashboard.Addr = DefaultDashboardAddr
	}
	if c.Dashboard.MetricsPath == "" {
		c.Dashboard.MetricsPath = DefaultMetricsPath
	}
	if c.Dashboard.DeviceChangeRate == nil {
		r := DefaultDeviceChangeRate
		c.Dashboard.DeviceChangeRate = &r
	}
	if c.Dashboard.DeviceChangeBurst == 0 {
		c.Dashboard.DeviceChangeBurst = DefaultDeviceChangeBurst
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
}
