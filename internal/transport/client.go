package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a socket connection to the leaderboard backend. It is
// created per session: Open starts the dial/read/reconnect loop and
// Close tears the session down for good.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.RWMutex
	conn   *websocket.Conn
	state  State
	opened bool
	closed bool

	done chan struct{}

	// Write serialization
	writeMu sync.Mutex

	handlersMu sync.RWMutex
	handlers   map[string][]Handler
}

// NewClient creates a new socket client. The connection is not dialed
// until Open is called.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Client{
		cfg:      cfg,
		logger:   logger,
		state:    StateDisconnected,
		done:     make(chan struct{}),
		handlers: map[string][]Handler{},
	}
}

// On binds a handler to a named event. Multiple handlers per event are
// allowed; they run in registration order.
func (c *Client) On(event string, h Handler) {
	c.handlersMu.Lock()
	c.handlers[event] = append(c.handlers[event], h)
	c.handlersMu.Unlock()
}

// Off removes all handlers bound to a named event.
func (c *Client) Off(event string) {
	c.handlersMu.Lock()
	delete(c.handlers, event)
	c.handlersMu.Unlock()
}

// Open starts the session loop. It returns immediately; connection
// completion is signaled by the "connect" event. Calling Open more
// than once is a no-op.
func (c *Client) Open() {
	c.mu.Lock()
	if c.opened || c.closed {
		c.mu.Unlock()
		return
	}
	c.opened = true
	c.mu.Unlock()

	go c.run()
}

// Close unconditionally tears down the session and disables
// reconnection. Safe to call in any state.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateDisconnected
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	close(c.done)

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}

	return nil
}

// Send writes a named event frame to the server.
func (c *Client) Send(event string, data any) error {
	c.mu.RLock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.RUnlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(frame{Event: event, Data: payload})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// IsConnected returns whether the transport-level connect ack has been
// received and the session is live.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == StateConnected && c.conn != nil
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// run is the session loop: dial, read until failure, reconnect per
// policy. All event handlers fire from this goroutine, so no two
// deliveries run concurrently.
func (c *Client) run() {
	if !slices.Contains(c.cfg.Transports, "websocket") {
		c.logger.Error("no usable transport", "transports", c.cfg.Transports)
		c.emit(EventConnectError, jsonValue(ErrNoWebSocket.Error()))
		return
	}

	attempt := 0
	delay := c.cfg.ReconnectionDelay

	for {
		if c.isClosed() {
			return
		}

		c.setState(StateConnecting)
		err := c.dial()

		if c.isClosed() {
			return
		}

		if err != nil {
			c.logger.Warn("connect failed", "url", c.cfg.URL, "error", err)
			c.emit(EventConnectError, jsonValue(err.Error()))
		} else {
			if attempt > 0 {
				c.logger.Info("reconnected", "attempt", attempt)
				c.emit(EventReconnect, jsonValue(attempt))
			}
			attempt = 0
			delay = c.cfg.ReconnectionDelay

			c.emit(EventConnect, nil)

			reason := c.readLoop()
			if c.isClosed() {
				return
			}
			c.setState(StateDisconnected)
			c.emit(EventDisconnect, jsonValue(reason))
		}

		if !c.cfg.Reconnection {
			c.setState(StateDisconnected)
			return
		}

		attempt++
		if c.cfg.ReconnectionAttempts > 0 && attempt > c.cfg.ReconnectionAttempts {
			c.logger.Warn("reconnect attempts exhausted", "attempts", c.cfg.ReconnectionAttempts)
			c.setState(StateDisconnected)
			c.emit(EventReconnectFailed, nil)
			return
		}

		c.emit(EventReconnectAttempt, jsonValue(attempt))

		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.cfg.ReconnectionDelayMax {
			delay = c.cfg.ReconnectionDelayMax
		}
	}
}

// dial performs one connection attempt.
func (c *Client) dial() error {
	u, err := c.dialURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	for k, vs := range c.cfg.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	if token := c.cfg.Auth["token"]; token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.Timeout,
		Jar:              c.cfg.Jar,
	}

	conn, _, err := dialer.Dial(u, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	c.logger.Debug("socket connected", "url", u)
	return nil
}

// dialURL builds the ws(s) handshake URL from the backend base URL,
// the fixed path, auth payload and pass-through query.
func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + c.cfg.Path

	q := u.Query()
	for k, vs := range c.cfg.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	for k, v := range c.cfg.Auth {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// readLoop reads frames until the connection drops and returns the
// disconnect reason.
func (c *Client) readLoop() string {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil { // Close won the race with dial
		return "transport close"
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
			conn.Close()

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "io server disconnect"
			}
			c.logger.Debug("read failed", "error", err)
			return "transport close"
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil || f.Event == "" {
			c.logger.Warn("dropping malformed frame", "error", err)
			continue
		}

		c.emit(f.Event, f.Data)
	}
}

// emit invokes every handler bound to the event. A panicking handler
// is logged and does not stop the session loop.
func (c *Client) emit(event string, data json.RawMessage) {
	c.handlersMu.RLock()
	hs := slices.Clone(c.handlers[event])
	c.handlersMu.RUnlock()

	for _, h := range hs {
		c.invoke(event, h, data)
	}
}

func (c *Client) invoke(event string, h Handler, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event handler panicked", "event", event, "panic", r)
		}
	}()
	h(data)
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func jsonValue(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
