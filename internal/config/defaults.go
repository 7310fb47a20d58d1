package config

import (
	"os"
	"time"

	"github.com/sweeplive/leaderboard-stream/internal/version"
)

// Default values for optional configuration fields.
const (
	DefaultBackendURL           = "http://localhost:8080"
	DefaultSocketPath           = "/ws/leaderboard"
	DefaultReconnectionDelay    = 1 * time.Second
	DefaultReconnectionDelayMax = 5 * time.Second
	DefaultTimeout              = 20 * time.Second
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 4
	DefaultMinConns             = 1
	DefaultBatchSize            = 500
	DefaultFlushInterval        = 1 * time.Second
	DefaultBufferSize           = 1000
	DefaultLogLevel             = "info"
)

// BackendURLEnv is the environment variable checked when neither the
// build-time value nor the config file provides a backend URL.
const BackendURLEnv = "LEADERBOARD_BACKEND_URL"

// DefaultTransports is the transport preference order: the upgraded
// transport first, long-polling as fallback.
func DefaultTransports() []string {
	return []string{"websocket", "polling"}
}

func (c *Config) applyDefaults() {
	// Backend defaults
	if c.Backend.URL == "" {
		c.Backend.URL = os.Getenv(BackendURLEnv)
	}
	if c.Backend.URL == "" {
		c.Backend.URL = DefaultBackendURL
	}
	// Build-time value beats everything else
	if version.BackendURL != "" {
		c.Backend.URL = version.BackendURL
	}

	// Socket defaults
	if c.Socket.Path == "" {
		c.Socket.Path = DefaultSocketPath
	}
	if len(c.Socket.Transports) == 0 {
		c.Socket.Transports = DefaultTransports()
	}
	if c.Socket.ReconnectionDelay == 0 {
		c.Socket.ReconnectionDelay = DefaultReconnectionDelay
	}
	if c.Socket.ReconnectionDelayMax == 0 {
		c.Socket.ReconnectionDelayMax = DefaultReconnectionDelayMax
	}
	if c.Socket.Timeout == 0 {
		c.Socket.Timeout = DefaultTimeout
	}

	// Archive defaults
	if c.Archive.BatchSize == 0 {
		c.Archive.BatchSize = DefaultBatchSize
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = DefaultFlushInterval
	}
	if c.Archive.BufferSize == 0 {
		c.Archive.BufferSize = DefaultBufferSize
	}
	applyDBDefaults(&c.Archive.Database)

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
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
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
