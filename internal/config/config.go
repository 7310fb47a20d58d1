// Package config loads and validates lbwatch configuration from YAML
// files with environment variable expansion.
package config

import "time"

// Config is the top-level configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Socket  SocketConfig  `yaml:"socket"`
	Token   TokenConfig   `yaml:"token"`
	Archive ArchiveConfig `yaml:"archive"`
	Log     LogConfig     `yaml:"log"`
}

// BackendConfig identifies the leaderboard backend.
type BackendConfig struct {
	// URL is the backend base URL (http/https). Resolution order:
	// build-time injected value, this field, LEADERBOARD_BACKEND_URL,
	// local default.
	URL string `yaml:"url"`
}

// SocketConfig tunes the realtime connection.
type SocketConfig struct {
	Path                 string        `yaml:"path"`
	Transports           []string      `yaml:"transports"`
	ReconnectionAttempts int           `yaml:"reconnection_attempts"` // 0 = unlimited
	ReconnectionDelay    time.Duration `yaml:"reconnection_delay"`
	ReconnectionDelayMax time.Duration `yaml:"reconnection_delay_max"`
	Timeout              time.Duration `yaml:"timeout"`
}

// TokenConfig selects where the persisted auth token lives.
type TokenConfig struct {
	// File is the path of the JSON token file. Empty means the default
	// location under the user config dir.
	File string `yaml:"file"`

	// Redis, when Addr is set, takes precedence over the file store.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis-backed token store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ArchiveConfig configures the optional Postgres event archive.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds Postgres connection parameters.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
