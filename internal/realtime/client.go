package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"StockWatch/internal/domain/models"
	"StockWatch/internal/domain/repository"
	"StockWatch/pkg/logger"
	"StockWatch/pkg/socketio"
)

// State of the push connection.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Transport is the socket layer the client drives. *socketio.Client satisfies it.
type Transport interface {
	Connect(ctx context.Context, h socketio.Handlers)
	Emit(event string, args ...any) error
	Close() error
	ID() string
}

// Listener receives the raw JSON payload of an event. The slice is shared
// between all listeners of one dispatch and must not be modified.
type Listener func(payload json.RawMessage)

// Listeners is the registration surface handed to consumers.
type Listeners interface {
	On(event string, fn Listener) *Registration
	Off(event string, reg *Registration)
}

// Registration identifies one listener. Remove detaches exactly that listener.
type Registration struct {
	client  *Client
	event   string
	fn      Listener
	removed atomic.Bool
}

// Remove is safe to call more than once.
func (r *Registration) Remove() {
	if r == nil || r.client == nil {
		return
	}
	r.client.Off(r.event, r)
}

// Client owns the single push connection of the process and fans server
// events out to in-process listeners.
type Client struct {
	transport Transport
	log       *logger.Logger
	metrics   repository.Metrics

	// lifecycle orders transport Connect and Close calls.
	lifecycle sync.Mutex

	mu        sync.Mutex
	state     State
	active    bool
	gen       uint64
	listeners map[string][]*Registration
}

var _ Listeners = (*Client)(nil)

func New(t Transport, log *logger.Logger, metrics repository.Metrics) *Client {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	c := &Client{
		transport: t,
		log:       log,
		metrics:   metrics,
		state:     StateDisconnected,
		listeners: make(map[string][]*Registration),
	}
	metrics.RecordConnectionState(string(StateDisconnected))
	return c
}

// Connect starts the transport unless a session is already running.
// Failures are reported as connect_error events, never returned.
func (c *Client) Connect(ctx context.Context) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return
	}
	c.active = true
	c.gen++
	gen := c.gen
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	c.log.Info("realtime connecting")
	c.transport.Connect(ctx, c.handlers(gen))
}

// Disconnect tears the transport down. Calling it while disconnected is a no-op.
func (c *Client) Disconnect() {
	c.lifecycle.Lock()
	c.mu.Lock()
	if !c.active && c.state == StateDisconnected {
		c.mu.Unlock()
		c.lifecycle.Unlock()
		return
	}
	wasConnected := c.state == StateConnected
	c.active = false
	c.gen++
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if err := c.transport.Close(); err != nil {
		c.log.Debug("realtime transport close", logger.Error(err))
	}
	c.lifecycle.Unlock()

	if wasConnected {
		c.dispatch(EventDisconnected, mustPayload(models.DisconnectEvent{Reason: socketio.ReasonClientDisconnect}))
	}
}

// Subscribe asks the server for a topic. While disconnected nothing is sent:
// the call logs a warning and returns nil. Callers re-subscribe after reconnect.
func (c *Client) Subscribe(topic string, params map[string]any) error {
	return c.sendSubscription(EventSubscribe, topic, params)
}

// Unsubscribe mirrors Subscribe.
func (c *Client) Unsubscribe(topic string, params map[string]any) error {
	return c.sendSubscription(EventUnsubscribe, topic, params)
}

func (c *Client) sendSubscription(event, topic string, params map[string]any) error {
	if !c.IsConnected() {
		c.log.Warn("realtime not connected, dropping request", logger.String("event", event), logger.String("topic", topic))
		return nil
	}
	if params == nil {
		params = map[string]any{}
	}
	return c.emit(event, models.SubscribeMessage{Type: topic, Params: params})
}

// Ping sends an application-level ping; the server answers with pong.
func (c *Client) Ping() error {
	if !c.IsConnected() {
		c.log.Warn("realtime not connected, dropping ping")
		return nil
	}
	return c.emit(EventPing)
}

func (c *Client) emit(event string, args ...any) error {
	err := c.transport.Emit(event, args...)
	if errors.Is(err, socketio.ErrNotConnected) {
		c.log.Warn("realtime connection lost before send", logger.String("event", event))
		return nil
	}
	if err != nil {
		c.metrics.RecordError("realtime_emit")
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

// On registers fn for event. Listeners of one event run in registration order.
func (c *Client) On(event string, fn Listener) *Registration {
	reg := &Registration{client: c, event: event, fn: fn}
	c.mu.Lock()
	c.listeners[event] = append(c.listeners[event], reg)
	c.mu.Unlock()
	return reg
}

// Off removes reg, or every listener of event when reg is nil.
func (c *Client) Off(event string, reg *Registration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	regs := c.listeners[event]
	if reg == nil {
		for _, r := range regs {
			r.removed.Store(true)
		}
		delete(c.listeners, event)
		return
	}
	for i, r := range regs {
		if r != reg {
			continue
		}
		r.removed.Store(true)
		rest := make([]*Registration, 0, len(regs)-1)
		rest = append(rest, regs[:i]...)
		rest = append(rest, regs[i+1:]...)
		if len(rest) == 0 {
			delete(c.listeners, event)
		} else {
			c.listeners[event] = rest
		}
		return
	}
}

// ListenerCount reports how many listeners event has.
func (c *Client) ListenerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners[event])
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

func (c *Client) Status() models.ConnectionStatus {
	st := c.State()
	status := models.ConnectionStatus{State: string(st), Connected: st == StateConnected}
	if status.Connected {
		status.SocketID = c.transport.ID()
	}
	return status
}

// handlers binds transport callbacks to one Connect generation so callbacks
// from a torn-down session are ignored.
func (c *Client) handlers(gen uint64) socketio.Handlers {
	return socketio.Handlers{
		OnConnect: func(sid string) {
			if !c.transition(gen, StateConnected, true) {
				return
			}
			c.log.Info("realtime connected", logger.String("socket_id", sid))
			c.dispatch(EventConnected, mustPayload(models.ConnectedEvent{ClientID: sid}))
		},
		OnConnectError: func(err error) {
			if !c.transition(gen, StateConnecting, true) {
				return
			}
			c.log.Warn("realtime connect error", logger.Error(err))
			c.metrics.RecordError("realtime_connect")
			c.dispatch(EventConnectError, mustPayload(models.ConnectErrorEvent{Error: err.Error()}))
		},
		OnDisconnect: func(reason string) {
			if !c.transition(gen, StateDisconnected, true) {
				return
			}
			c.log.Warn("realtime disconnected", logger.String("reason", reason))
			c.dispatch(EventDisconnected, mustPayload(models.DisconnectEvent{Reason: reason}))
		},
		OnEvent: func(event string, data json.RawMessage) {
			if !c.isCurrent(gen) {
				return
			}
			if event == EventConnected {
				event = EventServerConnected
			}
			c.dispatch(event, data)
		},
		OnReconnectFailed: func() {
			if !c.transition(gen, StateDisconnected, false) {
				return
			}
			c.log.Error("realtime gave up reconnecting")
			c.dispatch(EventReconnectFailed, nil)
		},
	}
}

func (c *Client) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && c.gen == gen
}

// transition moves to st if gen is still the live session. active=false marks
// the session as finished so a later Connect starts a new one.
func (c *Client) transition(gen uint64, st State, active bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || c.gen != gen {
		return false
	}
	c.active = active
	c.setStateLocked(st)
	return true
}

func (c *Client) setStateLocked(st State) {
	if c.state == st {
		return
	}
	c.state = st
	c.metrics.RecordConnectionState(string(st))
}

// dispatch runs every listener of event with the same payload. A panicking
// listener is logged and skipped.
func (c *Client) dispatch(event string, payload json.RawMessage) {
	c.metrics.RecordEvent(event)

	c.mu.Lock()
	regs := c.listeners[event]
	c.mu.Unlock()

	for _, reg := range regs {
		if reg.removed.Load() || reg.fn == nil {
			continue
		}
		c.invoke(event, reg, payload)
	}
}

func (c *Client) invoke(event string, reg *Registration, payload json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.RecordListenerPanic(event)
			c.log.Error("realtime listener panicked", logger.String("event", event), logger.Any("panic", r))
		}
	}()
	reg.fn(payload)
}

func mustPayload(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

type nopMetrics struct{}

func (nopMetrics) RecordEvent(string)                         {}
func (nopMetrics) RecordListenerPanic(string)                 {}
func (nopMetrics) RecordConnectionState(string)               {}
func (nopMetrics) RecordRequest(string, string, int, float64) {}
func (nopMetrics) RecordLatency(string, float64)              {}
func (nopMetrics) RecordError(string)                         {}
