package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	applogger "StockWatch/pkg/logger"

	"github.com/gorilla/websocket"
)

// Disconnect reasons reported to Handlers.OnDisconnect.
const (
	ReasonClientDisconnect = "io client disconnect"
	ReasonServerDisconnect = "io server disconnect"
	ReasonTransportClose   = "transport close"
	ReasonTransportError   = "transport error"
	ReasonPingTimeout      = "ping timeout"
)

const writeWait = 5 * time.Second

// ErrNotConnected is returned by Emit when no live session exists.
var ErrNotConnected = errors.New("socketio: not connected")

// Handlers receive the lifecycle and events of a session. Every callback runs
// on the session goroutine; they must not block. Nil callbacks are skipped.
type Handlers struct {
	OnConnect      func(sid string)
	OnConnectError func(err error)
	OnDisconnect   func(reason string)
	OnEvent        func(event string, data json.RawMessage)
	// OnReconnectFailed fires once when the client stops retrying on its own.
	OnReconnectFailed func()
}

// Option configures Client.
type Option func(*Options)

// Options holds the connection and reconnection policy.
type Options struct {
	Path                 string
	Reconnection         bool
	ReconnectionAttempts int // 0 means unlimited
	ReconnectionDelay    time.Duration
	ReconnectionDelayMax time.Duration
	RandomizationFactor  float64
	DialTimeout          time.Duration
	Header               http.Header
	Dialer               *websocket.Dialer
	Logger               *applogger.Logger
}

// Client is a Socket.IO v5 client over the websocket transport.
// One Client drives at most one session at a time.
type Client struct {
	endpoint string
	opts     Options

	mu   sync.Mutex
	sess *session
}

type session struct {
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
	sid  string
}

// NewClient builds a client for an http(s) or ws(s) base URL such as http://localhost:5000.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	o := Options{
		Path:                 "/socket.io/",
		Reconnection:         true,
		ReconnectionAttempts: 5,
		ReconnectionDelay:    time.Second,
		ReconnectionDelayMax: 5 * time.Second,
		RandomizationFactor:  0.5,
		DialTimeout:          20 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Dialer == nil {
		o.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: o.DialTimeout,
		}
	}
	if o.Logger == nil {
		o.Logger = applogger.Nop()
	}

	endpoint, err := buildEndpoint(baseURL, o.Path)
	if err != nil {
		return nil, err
	}
	return &Client{endpoint: endpoint, opts: o}, nil
}

func buildEndpoint(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("socketio: parse url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("socketio: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("socketio: missing host in %q", baseURL)
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	u.Path = path
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Endpoint returns the websocket URL the client dials.
func (c *Client) Endpoint() string { return c.endpoint }

// Connect starts a session in the background. It is a no-op while a previous
// session is still running. Outcomes are reported through h.
func (c *Client) Connect(ctx context.Context, h Handlers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil && !c.sess.finished() {
		return
	}
	s := &session{stop: make(chan struct{}), done: make(chan struct{})}
	c.sess = s
	go c.run(ctx, s, h)
}

// Emit sends an event with the given arguments on the live session.
func (c *Client) Emit(event string, args ...any) error {
	frame, err := encodeEvent(event, args...)
	if err != nil {
		return err
	}
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return ErrNotConnected
	}
	return s.write(frame)
}

// ID returns the Socket.IO session id, empty when not connected.
func (c *Client) ID() string {
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sid
}

// Close ends the current session without waiting for its goroutine.
// No handler fires for the closed session afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.shutdown()
}

func (c *Client) run(ctx context.Context, s *session, h Handlers) {
	defer close(s.done)

	bo := &Backoff{
		Min:    c.opts.ReconnectionDelay,
		Max:    c.opts.ReconnectionDelayMax,
		Factor: 2,
		Jitter: c.opts.RandomizationFactor,
	}

	for {
		hs, early, err := c.open(ctx, s)
		if err != nil {
			if s.stopped() {
				return
			}
			c.opts.Logger.Debug("socketio connect failed", applogger.Error(err), applogger.Int("attempt", bo.Attempts()))
			if h.OnConnectError != nil {
				h.OnConnectError(err)
			}
			if !c.backoff(ctx, s, bo, h) {
				return
			}
			continue
		}

		bo.Reset()
		if h.OnConnect != nil {
			h.OnConnect(s.id())
		}
		for _, p := range early {
			c.deliver(p, h)
		}

		reason := c.readLoop(s, hs, h)
		s.dropConn()
		if s.stopped() {
			return
		}
		if h.OnDisconnect != nil {
			h.OnDisconnect(reason)
		}
		if !c.backoff(ctx, s, bo, h) {
			return
		}
	}
}

// backoff waits before the next attempt; false means stop retrying.
func (c *Client) backoff(ctx context.Context, s *session, bo *Backoff, h Handlers) bool {
	limit := c.opts.ReconnectionAttempts
	if !c.opts.Reconnection || (limit > 0 && bo.Attempts() >= limit) {
		if h.OnReconnectFailed != nil && !s.stopped() {
			h.OnReconnectFailed()
		}
		return false
	}
	t := time.NewTimer(bo.Duration())
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// open dials, completes the Engine.IO handshake and joins the default namespace.
// Events the server emits before acknowledging the connect are returned so they
// can be delivered once the session is up.
func (c *Client) open(ctx context.Context, s *session) (Handshake, []Packet, error) {
	var (
		hs    Handshake
		early []Packet
	)

	dctx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	conn, resp, err := c.opts.Dialer.DialContext(dctx, c.endpoint, c.opts.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return hs, nil, fmt.Errorf("dial %s: %w", c.endpoint, err)
	}

	fail := func(err error) (Handshake, []Packet, error) {
		conn.Close()
		return hs, nil, err
	}

	deadline := time.Now().Add(c.opts.DialTimeout)
	_ = conn.SetReadDeadline(deadline)

	_, frame, err := conn.ReadMessage()
	if err != nil {
		return fail(fmt.Errorf("read handshake: %w", err))
	}
	typ, body, err := splitEngine(frame)
	if err != nil || typ != engineOpen {
		return fail(fmt.Errorf("socketio: expected open packet, got %q", frame))
	}
	if err := json.Unmarshal(body, &hs); err != nil {
		return fail(fmt.Errorf("decode handshake: %w", err))
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, connectFrame()); err != nil {
		return fail(fmt.Errorf("send connect: %w", err))
	}

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return fail(fmt.Errorf("await connect: %w", err))
		}
		typ, body, err := splitEngine(frame)
		if err != nil {
			continue
		}
		switch typ {
		case enginePing:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, pongFrame()); err != nil {
				return fail(fmt.Errorf("send pong: %w", err))
			}
		case engineClose:
			return fail(errors.New("socketio: closed during handshake"))
		case engineMessage:
			p, err := decodePacket(body)
			if err != nil || p.Namespace != "/" {
				continue
			}
			switch p.Type {
			case PacketConnect:
				var ack struct {
					SID string `json:"sid"`
				}
				_ = json.Unmarshal(p.Data, &ack)
				if !s.attach(conn, ack.SID) {
					return fail(errors.New("socketio: client closed"))
				}
				return hs, early, nil
			case PacketConnectError:
				return fail(fmt.Errorf("socketio: %s", connectErrorMessage(p.Data)))
			case PacketEvent:
				early = append(early, p)
			}
		}
	}
}

func (c *Client) readLoop(s *session, hs Handshake, h Handlers) string {
	conn := s.current()
	if conn == nil {
		return ReasonTransportClose
	}

	timeout := time.Duration(hs.PingInterval+hs.PingTimeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return classify(err)
		}
		typ, body, err := splitEngine(frame)
		if err != nil {
			continue
		}
		switch typ {
		case enginePing:
			if err := s.write(pongFrame()); err != nil {
				return ReasonTransportError
			}
		case engineClose:
			return ReasonTransportClose
		case engineMessage:
			p, err := decodePacket(body)
			if err != nil {
				c.opts.Logger.Debug("socketio dropped frame", applogger.Error(err))
				continue
			}
			if p.Namespace != "/" {
				continue
			}
			switch p.Type {
			case PacketEvent:
				c.deliver(p, h)
			case PacketDisconnect:
				return ReasonServerDisconnect
			}
		}
	}
}

func (c *Client) deliver(p Packet, h Handlers) {
	name, data, err := p.Event()
	if err != nil {
		c.opts.Logger.Debug("socketio dropped event", applogger.Error(err))
		return
	}
	if h.OnEvent != nil {
		h.OnEvent(name, data)
	}
}

func classify(err error) string {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ReasonPingTimeout
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ReasonTransportClose
	}
	return ReasonTransportError
}

// --- session ---

func (s *session) attach(conn *websocket.Conn, sid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped() {
		return false
	}
	s.conn = conn
	s.sid = sid
	return true
}

func (s *session) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *session) id() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sid
}

func (s *session) dropConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.sid = ""
}

func (s *session) write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("socketio write: %w", err)
	}
	return nil
}

func (s *session) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *session) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *session) shutdown() error {
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(websocket.TextMessage, disconnectFrame())
	err := s.conn.Close()
	s.conn = nil
	s.sid = ""
	return err
}

// --- options ---

// WithPath sets the Socket.IO mount path (default /socket.io/).
func WithPath(path string) Option {
	return func(o *Options) { o.Path = path }
}

// WithReconnection configures automatic reconnection.
func WithReconnection(enabled bool, attempts int, delay, delayMax time.Duration, randomization float64) Option {
	return func(o *Options) {
		o.Reconnection = enabled
		o.ReconnectionAttempts = attempts
		if delay > 0 {
			o.ReconnectionDelay = delay
		}
		if delayMax > 0 {
			o.ReconnectionDelayMax = delayMax
		}
		o.RandomizationFactor = randomization
	}
}

// WithDialTimeout bounds dialing plus handshake.
func WithDialTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.DialTimeout = d
		}
	}
}

// WithHeader adds headers to the websocket upgrade request.
func WithHeader(h http.Header) Option {
	return func(o *Options) { o.Header = h }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(o *Options) { o.Dialer = d }
}

// WithLogger sets a logger for dropped frames and retries.
func WithLogger(l *applogger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}
