package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
	ErrNoWebSocket   = errors.New("transport list does not include websocket")
)

// Lifecycle event names synthesized by the client. Server data events
// arrive under their wire names.
const (
	EventConnect          = "connect"
	EventDisconnect       = "disconnect"        // data: reason string
	EventConnectError     = "connect_error"     // data: message string
	EventReconnectAttempt = "reconnect_attempt" // data: attempt count
	EventReconnect        = "reconnect"         // data: attempt count
	EventReconnectFailed  = "reconnect_failed"
)

// State describes the connection lifecycle.
type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// Handler receives the JSON data of one named event.
type Handler func(data json.RawMessage)

// frame is the wire format: {"event": "...", "data": ...}.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Config configures a socket client.
type Config struct {
	URL  string // Backend base URL (http/https)
	Path string // Handshake path (e.g. /ws/leaderboard)

	// Transports is the preference order. Only "websocket" is dialable;
	// the list must contain it or Open reports connect_error.
	Transports []string

	Reconnection         bool          // Automatic reconnection after unexpected disconnect
	ReconnectionAttempts int           // Attempt cap, 0 = unlimited
	ReconnectionDelay    time.Duration // Base wait between attempts
	ReconnectionDelayMax time.Duration // Cap for the doubling delay
	Timeout              time.Duration // Handshake timeout per dial

	// Auth is sent with the handshake: the "token" entry goes into the
	// Authorization header and the query string.
	Auth map[string]string

	// Pass-through handshake parameters.
	Query  url.Values
	Header http.Header
	Jar    http.CookieJar // credentials-inclusive mode
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Transports:           []string{"websocket", "polling"},
		Reconnection:         true,
		ReconnectionAttempts: 0,
		ReconnectionDelay:    1 * time.Second,
		ReconnectionDelayMax: 5 * time.Second,
		Timeout:              20 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if len(c.Transports) == 0 {
		c.Transports = def.Transports
	}
	if c.ReconnectionDelay == 0 {
		c.ReconnectionDelay = def.ReconnectionDelay
	}
	if c.ReconnectionDelayMax == 0 {
		c.ReconnectionDelayMax = def.ReconnectionDelayMax
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
}
