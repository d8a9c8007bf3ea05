package config

import "time"

// Config is the root configuration for a pond monitor instance.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	API         APIConfig         `yaml:"api"`
	Device      DeviceConfig      `yaml:"device"`
	Poller      PollerConfig      `yaml:"poller"`
	History     HistoryConfig     `yaml:"history"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Snapshot    SnapshotConfig    `yaml:"snapshot"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// APIConfig holds remote device API settings.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   *int          `yaml:"max_retries"` // nil = default, 0 = no retries
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// DeviceConfig selects the device polled at startup.
type DeviceConfig struct {
	ID string `yaml:"id"`
}

// PollerConfig holds live and history poll cadences.
type PollerConfig struct {
	LiveInterval    time.Duration `yaml:"live_interval"`
	HistoryInterval time.Duration `yaml:"history_interval"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
}

// HistoryConfig selects the history acquisition strategy.
type HistoryConfig struct {
	Strategy  string        `yaml:"strategy"` // "server" or "client"
	Retention time.Duration `yaml:"retention"`
}

// CalibrationConfig holds the aerator calibration.
// Zero means "use the selected strategy's default".
type CalibrationConfig struct {
	AmpsPerAerator float64 `yaml:"amps_per_aerator"`
}

// SnapshotConfig holds the durable history snapshot settings (client strategy only).
type SnapshotConfig struct {
	Backend  string         `yaml:"backend"` // file, redis, postgres, none
	Key      string         `yaml:"key"`
	File     FileConfig     `yaml:"file"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// FileConfig holds the file snapshot backend settings.
type FileConfig struct {
	Dir string `yaml:"dir"`
}

// RedisConfig holds the Redis snapshot backend settings.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // 0 = no expiry
}

// PostgresConfig holds the Postgres snapshot backend settings.
type PostgresConfig struct {
	DB    DBConfig `yaml:",inline"`
	Table string   `yaml:"table"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
}

// DashboardConfig holds the local HTTP surface settings.
type DashboardConfig struct {
	Addr              string   `yaml:"addr"`
	MetricsPath       string   `yaml:"metrics_path"`
	DeviceChangeRate  *float64 `yaml:"device_change_rate"` // Switches per second, nil = default, 0 = unlimited
	DeviceChangeBurst int      `yaml:"device_change_burst"`
}
