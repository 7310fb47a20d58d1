package leaderboard

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/sweeplive/leaderboard-stream/internal/token"
)

// Server event names (bit-exact wire names).
const (
	EventLeaderboardBeginner     = "leaderboard_update_beginner"
	EventLeaderboardIntermediate = "leaderboard_update_intermediate"
	EventUserRankChange          = "user_rank_change"
	EventNewSolve                = "new_solve"
)

// SocketPath is the fixed handshake path on the backend.
const SocketPath = "/ws/leaderboard"

// Update is the canonical leaderboard-update record. Each raw payload
// shape the backend pushes is normalized into this one form.
type Update struct {
	// Difficulty the update applies to; empty when the payload carried
	// none.
	Difficulty string `json:"difficulty,omitempty"`

	// Data is the ordered leaderboard entries. Never nil, possibly
	// empty.
	Data []json.RawMessage `json:"data"`

	// Timestamp as sent by the backend, nil when absent.
	Timestamp any `json:"timestamp,omitempty"`

	// UpdatedUser whose solve triggered the update, nil when absent.
	UpdatedUser any `json:"updated_user,omitempty"`
}

// Config configures a Service.
type Config struct {
	// BackendURL is the resolved backend base URL.
	BackendURL string

	// Path overrides the handshake path. Empty means SocketPath.
	Path string

	// Tokens is the persisted token store consulted when a connect
	// call carries no explicit token. May be nil.
	Tokens token.Store
}

// Options tunes a single Connect call. Fields the Service does not
// consume itself pass through to the transport configuration
// unmodified, so advanced callers can override any default.
type Options struct {
	// Token overrides the persisted auth token.
	Token string

	// Transports overrides the transport preference order.
	Transports []string

	// ReconnectionAttempts caps automatic reconnects; 0 = unlimited.
	ReconnectionAttempts int

	// ReconnectionDelay overrides the base reconnect delay.
	ReconnectionDelay time.Duration

	// ReconnectionDelayMax overrides the reconnect delay cap.
	ReconnectionDelayMax time.Duration

	// Timeout overrides the handshake timeout.
	Timeout time.Duration

	// Pass-through handshake parameters.
	Query  url.Values
	Header http.Header
	Jar    http.CookieJar
}
