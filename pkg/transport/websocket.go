package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Transport errors.
var (
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("transport closed")
)

// Keep-alive and timeout defaults.
const (
	DefaultPingInterval = 30 * time.Second
	DefaultPongTimeout  = 10 * time.Second
	DefaultDialTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultEventBuffer  = 64

	// DefaultPath is the host's websocket endpoint.
	DefaultPath = "/websocket"
)

// KeepAliveConfig configures websocket ping/pong liveness.
type KeepAliveConfig struct {
	PingInterval time.Duration
	PongTimeout  time.Duration
}

// ReadTimeout is the longest a session may stay silent before it is dropped.
func (c KeepAliveConfig) ReadTimeout() time.Duration {
	return c.PingInterval + c.PongTimeout
}

// Config configures a WebSocketClient.
type Config struct {
	// URL is the websocket endpoint, for example ws://printer.local:7125/websocket.
	URL string

	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// KeepAlive configures ping frames.
	KeepAlive KeepAliveConfig

	// Reconnect enables redialing after a session ends.
	Reconnect bool

	// Backoff configures reconnect delays.
	Backoff BackoffConfig

	// EventBuffer is the capacity of the events channel.
	EventBuffer int

	// Logger receives operational logs. Nil disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns a reconnecting configuration for host:port.
func DefaultConfig(host string, port int) Config {
	return Config{
		URL:          URLFor(host, port),
		DialTimeout:  DefaultDialTimeout,
		WriteTimeout: DefaultWriteTimeout,
		KeepAlive: KeepAliveConfig{
			PingInterval: DefaultPingInterval,
			PongTimeout:  DefaultPongTimeout,
		},
		Reconnect:   true,
		Backoff:     DefaultBackoffConfig(),
		EventBuffer: DefaultEventBuffer,
	}
}

// URLFor builds the websocket URL of a host.
func URLFor(host string, port int) string {
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   DefaultPath,
	}
	return u.String()
}

// WebSocketClient is a reconnecting websocket Transport.
type WebSocketClient struct {
	config  Config
	dialer  *websocket.Dialer
	backoff *Backoff
	logger  *slog.Logger
	events  chan Event

	mu      sync.Mutex
	conn    *websocket.Conn
	session string
	closed  bool

	// writeMu serializes data frames; gorilla allows one concurrent writer.
	writeMu sync.Mutex
}

// NewWebSocketClient creates a client. Call Run to start dialing.
func NewWebSocketClient(config Config) (*WebSocketClient, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("transport: URL is required")
	}
	if _, err := url.Parse(config.URL); err != nil {
		return nil, fmt.Errorf("transport: invalid URL: %w", err)
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.KeepAlive.PingInterval <= 0 {
		config.KeepAlive.PingInterval = DefaultPingInterval
	}
	if config.KeepAlive.PongTimeout <= 0 {
		config.KeepAlive.PongTimeout = DefaultPongTimeout
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = DefaultEventBuffer
	}

	return &WebSocketClient{
		config:  config,
		dialer:  &websocket.Dialer{HandshakeTimeout: config.DialTimeout, Proxy: websocket.DefaultDialer.Proxy},
		backoff: NewBackoff(config.Backoff),
		logger:  config.Logger,
		events:  make(chan Event, config.EventBuffer),
	}, nil
}

var (
	_ Transport   = (*WebSocketClient)(nil)
	_ EventSource = (*WebSocketClient)(nil)
)

// Events returns the event channel. It is closed when Run returns.
func (c *WebSocketClient) Events() <-chan Event {
	return c.events
}

// Session returns the id of the current session, empty when disconnected.
func (c *WebSocketClient) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Send writes one text frame on the current session.
func (c *WebSocketClient) Send(data []byte) error {
	c.mu.Lock()
	conn := c.conn
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

// Close ends the current session with a normal close frame and stops
// reconnecting. Run returns shortly after.
func (c *WebSocketClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.config.WriteTimeout))
	return conn.Close()
}

// Run dials and serves sessions until ctx is done, Close is called, or a
// session ends with reconnection disabled. The events channel is closed on
// return.
func (c *WebSocketClient) Run(ctx context.Context) error {
	defer close(c.events)

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		if c.isClosed() {
			return ctx.Err()
		}

		conn, err := c.dial(ctx)
		if err != nil {
			if c.isClosed() || ctx.Err() != nil {
				return ctx.Err()
			}
			if !c.config.Reconnect {
				return err
			}
			delay := c.backoff.Next()
			c.debugLog("dial failed", "url", c.config.URL, "error", err, "retry_in", delay, "attempt", c.backoff.Attempts())
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			continue
		}

		c.backoff.Reset()
		c.serve(ctx, conn)

		if c.isClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		if !c.config.Reconnect {
			return nil
		}
		delay := c.backoff.Next()
		c.debugLog("session ended, reconnecting", "retry_in", delay)
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

func (c *WebSocketClient) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.config.DialTimeout)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(dialCtx, c.config.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", c.config.URL, err)
	}
	return conn, nil
}

// serve owns one session from open to close.
func (c *WebSocketClient) serve(ctx context.Context, conn *websocket.Conn) {
	session := uuid.NewString()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.session = session
	c.mu.Unlock()

	c.debugLog("session open", "session", session, "url", c.config.URL)
	c.emit(ctx, Event{Type: EventOpen, Session: session})

	readTimeout := c.config.KeepAlive.ReadTimeout()
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	pingDone := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.pingLoop(conn, pingDone)
	}()

	var readErr error
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			readErr = err
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		c.emit(ctx, Event{Type: EventMessage, Session: session, Data: data})
	}

	close(pingDone)
	wg.Wait()
	_ = conn.Close()

	c.mu.Lock()
	c.conn = nil
	c.session = ""
	local := c.closed
	c.mu.Unlock()

	clean, code := classifyClose(readErr, local)
	c.debugLog("session closed", "session", session, "clean", clean, "code", code, "error", readErr)
	c.emit(ctx, Event{Type: EventClose, Session: session, Clean: clean, Code: code, Err: readErr})
}

func (c *WebSocketClient) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.config.KeepAlive.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.config.KeepAlive.PongTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.debugLog("ping failed", "error", err)
				return
			}
		}
	}
}

// classifyClose maps the error that ended a read loop to a close report.
// A received close frame with a normal or going-away code is clean, as is
// a locally initiated close. Everything else is abnormal.
func classifyClose(err error, local bool) (clean bool, code int) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		switch ce.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			return true, ce.Code
		default:
			return false, ce.Code
		}
	}
	if local {
		return true, CloseNormal
	}
	return false, CloseAbnormal
}

// emit delivers an event unless ctx is done first.
func (c *WebSocketClient) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *WebSocketClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *WebSocketClient) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
