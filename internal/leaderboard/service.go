package leaderboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sweeplive/leaderboard-stream/internal/transport"
)

// Service manages the single live connection to the leaderboard
// backend and fans its events out to the listener registries. Create
// one per application; independent instances never share state.
type Service struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	conn *transport.Client

	updates *Registry[Update]
	ranks   *Registry[json.RawMessage]
	solves  *Registry[json.RawMessage]
}

// boundEvents are the handler bindings Disconnect unbinds.
var boundEvents = []string{
	transport.EventConnect,
	transport.EventDisconnect,
	transport.EventConnectError,
	transport.EventReconnectAttempt,
	transport.EventReconnect,
	transport.EventReconnectFailed,
	EventLeaderboardBeginner,
	EventLeaderboardIntermediate,
	EventUserRankChange,
	EventNewSolve,
}

// NewService creates a Service. The connection is not dialed until
// Connect is called.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:     cfg,
		logger:  logger,
		updates: NewRegistry[Update](logger),
		ranks:   NewRegistry[json.RawMessage](logger),
		solves:  NewRegistry[json.RawMessage](logger),
	}
}

// Connect returns the live connection handle, creating one when none
// is live. With a connected handle, onConnect fires immediately and no
// new session is created. Otherwise a new session is dialed and
// onConnect fires on every transport-level connect ack, including
// reconnects. Connect never blocks on the network and never returns an
// error: transport failures surface through diagnostics only.
func (s *Service) Connect(onConnect func(*transport.Client), opts *Options) *transport.Client {
	s.mu.Lock()

	if s.conn != nil && s.conn.IsConnected() {
		conn := s.conn
		s.mu.Unlock()
		s.logger.Debug("reusing live leaderboard connection")
		if onConnect != nil {
			onConnect(conn)
		}
		return conn
	}

	// A stale or still-dialing handle is replaced, not reused.
	if s.conn != nil {
		s.conn.Close()
	}

	conn := transport.NewClient(s.transportConfig(opts), s.logger)
	s.bind(conn, onConnect)
	s.conn = conn
	s.mu.Unlock()

	conn.Open()
	return conn
}

// Disconnect tears down the live session, if any: handlers are
// unbound, the transport is closed, and all three registries are
// cleared. Listeners must re-register after reconnecting.
func (s *Service) Disconnect() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return
	}

	for _, ev := range boundEvents {
		conn.Off(ev)
	}
	conn.Close()

	s.updates.Clear()
	s.ranks.Clear()
	s.solves.Clear()

	s.logger.Info("leaderboard socket disconnected")
}

// OnLeaderboardUpdate subscribes to normalized leaderboard updates for
// both difficulties. The returned closure removes the subscription.
func (s *Service) OnLeaderboardUpdate(fn func(Update)) func() {
	return s.updates.Subscribe(fn)
}

// OnUserRankChange subscribes to raw user_rank_change payloads.
func (s *Service) OnUserRankChange(fn func(json.RawMessage)) func() {
	return s.ranks.Subscribe(fn)
}

// OnNewSolve subscribes to raw new_solve payloads.
func (s *Service) OnNewSolve(fn func(json.RawMessage)) func() {
	return s.solves.Subscribe(fn)
}

// Connected reports whether a live, acked session exists.
func (s *Service) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && s.conn.IsConnected()
}

// transportConfig builds the session configuration: defaults, then
// explicit option overrides, with unconsumed options passed through.
func (s *Service) transportConfig(opts *Options) transport.Config {
	cfg := transport.DefaultConfig()
	cfg.URL = s.cfg.BackendURL
	cfg.Path = s.cfg.Path
	if cfg.Path == "" {
		cfg.Path = SocketPath
	}
	cfg.Auth = map[string]string{"token": s.resolveToken(opts)}

	if opts == nil {
		return cfg
	}

	if len(opts.Transports) > 0 {
		cfg.Transports = opts.Transports
	}
	if opts.ReconnectionAttempts > 0 {
		cfg.ReconnectionAttempts = opts.ReconnectionAttempts
	}
	if opts.ReconnectionDelay > 0 {
		cfg.ReconnectionDelay = opts.ReconnectionDelay
	}
	if opts.ReconnectionDelayMax > 0 {
		cfg.ReconnectionDelayMax = opts.ReconnectionDelayMax
	}
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	cfg.Query = opts.Query
	cfg.Header = opts.Header
	cfg.Jar = opts.Jar

	return cfg
}

// resolveToken picks the auth token: explicit option, else the
// persisted store, else empty. Store failures are diagnostic only.
func (s *Service) resolveToken(opts *Options) string {
	if opts != nil && opts.Token != "" {
		return opts.Token
	}
	if s.cfg.Tokens == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tok, err := s.cfg.Tokens.Token(ctx)
	if err != nil {
		s.logger.Warn("reading persisted auth token failed", "error", err)
		return ""
	}
	return tok
}

// bind wires the event router to a new handle: lifecycle diagnostics,
// the onConnect callback, and the three fanout paths. Both difficulty
// update events share one normalize-and-notify path; subscribers see
// only the normalized content.
func (s *Service) bind(conn *transport.Client, onConnect func(*transport.Client)) {
	conn.On(transport.EventConnect, func(json.RawMessage) {
		s.logger.Info("leaderboard socket connected")
		if onConnect != nil {
			onConnect(conn)
		}
	})
	conn.On(transport.EventDisconnect, func(data json.RawMessage) {
		s.logger.Warn("leaderboard socket disconnected", "reason", rawString(data))
	})
	conn.On(transport.EventConnectError, func(data json.RawMessage) {
		s.logger.Warn("leaderboard socket connect error", "error", rawString(data))
	})
	conn.On(transport.EventReconnectAttempt, func(data json.RawMessage) {
		s.logger.Info("leaderboard socket reconnecting", "attempt", rawString(data))
	})
	conn.On(transport.EventReconnect, func(data json.RawMessage) {
		s.logger.Info("leaderboard socket reconnected", "attempt", rawString(data))
	})
	conn.On(transport.EventReconnectFailed, func(json.RawMessage) {
		s.logger.Error("leaderboard socket reconnection failed")
	})

	update := func(data json.RawMessage) {
		s.updates.Notify(Normalize(data))
	}
	conn.On(EventLeaderboardBeginner, update)
	conn.On(EventLeaderboardIntermediate, update)

	conn.On(EventUserRankChange, func(data json.RawMessage) {
		s.ranks.Notify(data)
	})
	conn.On(EventNewSolve, func(data json.RawMessage) {
		s.solves.Notify(data)
	})
}

// rawString renders event data for logging without quoting noise.
func rawString(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return string(data)
}
