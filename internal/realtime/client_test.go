package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"StockWatch/internal/domain/models"
	"StockWatch/pkg/socketio"
)

type emitted struct {
	event string
	args  []any
}

// fakeTransport records calls and lets tests drive the lifecycle callbacks.
type fakeTransport struct {
	mu       sync.Mutex
	connects int
	closes   int
	emits    []emitted
	handlers socketio.Handlers
	emitErr  error
}

func (f *fakeTransport) Connect(_ context.Context, h socketio.Handlers) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	f.handlers = h
}

func (f *fakeTransport) Emit(event string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emitErr != nil {
		return f.emitErr
	}
	f.emits = append(f.emits, emitted{event: event, args: args})
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeTransport) ID() string { return "sock-1" }

func (f *fakeTransport) h() socketio.Handlers {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers
}

func connected(t *testing.T) (*Client, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	c := New(ft, nil, nil)
	c.Connect(context.Background())
	ft.h().OnConnect("sock-1")
	if !c.IsConnected() {
		t.Fatalf("expected connected, got %s", c.State())
	}
	return c, ft
}

func TestRemovedListenerIsNotInvoked(t *testing.T) {
	c, ft := connected(t)

	calls := 0
	reg := c.On(EventRiskAlert, func(json.RawMessage) { calls++ })
	reg.Remove()
	reg.Remove()

	other := 0
	reg2 := c.On(EventRiskAlert, func(json.RawMessage) { other++ })
	c.Off(EventRiskAlert, reg2)

	ft.h().OnEvent(EventRiskAlert, json.RawMessage(`{}`))
	if calls != 0 || other != 0 {
		t.Fatalf("removed listeners ran: %d %d", calls, other)
	}
	if n := c.ListenerCount(EventRiskAlert); n != 0 {
		t.Fatalf("listener count = %d", n)
	}
}

func TestOffWithoutRegistrationRemovesAll(t *testing.T) {
	c, ft := connected(t)

	calls := 0
	c.On(EventPong, func(json.RawMessage) { calls++ })
	c.On(EventPong, func(json.RawMessage) { calls++ })
	keep := 0
	c.On(EventSubscribed, func(json.RawMessage) { keep++ })

	c.Off(EventPong, nil)
	c.Off("never-registered", nil)

	ft.h().OnEvent(EventPong, nil)
	ft.h().OnEvent(EventSubscribed, json.RawMessage(`{}`))
	if calls != 0 || keep != 1 {
		t.Fatalf("calls=%d keep=%d", calls, keep)
	}
}

func TestListenersRunInOrderAndSurvivePanics(t *testing.T) {
	c, ft := connected(t)

	var order []string
	c.On(EventMarketData, func(json.RawMessage) {
		order = append(order, "first")
		panic("boom")
	})
	c.On(EventMarketData, func(json.RawMessage) {
		order = append(order, "second")
	})

	ft.h().OnEvent(EventMarketData, json.RawMessage(`{"symbol":"000001.SZ"}`))
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v", order)
	}
}

func TestListenerRemovedDuringDispatchIsSkipped(t *testing.T) {
	c, ft := connected(t)

	var second *Registration
	ran := false
	c.On(EventPong, func(json.RawMessage) { second.Remove() })
	second = c.On(EventPong, func(json.RawMessage) { ran = true })

	ft.h().OnEvent(EventPong, nil)
	if ran {
		t.Fatalf("listener removed mid-dispatch still ran")
	}
}

func TestSubscribeWhileDisconnectedSendsNothing(t *testing.T) {
	ft := &fakeTransport{}
	c := New(ft, nil, nil)

	if err := c.Subscribe(models.TopicRiskAlerts, nil); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := c.Unsubscribe(models.TopicRiskAlerts, nil); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := c.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	// connecting is not connected either
	c.Connect(context.Background())
	if err := c.Subscribe(models.TopicMarketData, map[string]any{"symbol": "000001.SZ"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(ft.emits) != 0 {
		t.Fatalf("unexpected emits %+v", ft.emits)
	}
}

func TestSubscribeSendsTypeAndParams(t *testing.T) {
	c, ft := connected(t)

	if err := c.Subscribe(models.TopicRiskAlerts, nil); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := c.Unsubscribe(models.TopicMarketData, map[string]any{"symbol": "000001.SZ"}); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := c.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if len(ft.emits) != 3 {
		t.Fatalf("emits = %+v", ft.emits)
	}

	sub := ft.emits[0]
	msg, ok := sub.args[0].(models.SubscribeMessage)
	if sub.event != EventSubscribe || !ok || msg.Type != models.TopicRiskAlerts || msg.Params == nil || len(msg.Params) != 0 {
		t.Fatalf("subscribe emit = %+v", sub)
	}
	unsub := ft.emits[1]
	msg, _ = unsub.args[0].(models.SubscribeMessage)
	if unsub.event != EventUnsubscribe || msg.Params["symbol"] != "000001.SZ" {
		t.Fatalf("unsubscribe emit = %+v", unsub)
	}
	if ft.emits[2].event != EventPing || len(ft.emits[2].args) != 0 {
		t.Fatalf("ping emit = %+v", ft.emits[2])
	}
}

func TestEmitErrors(t *testing.T) {
	c, ft := connected(t)

	ft.emitErr = socketio.ErrNotConnected
	if err := c.Subscribe(models.TopicNews, nil); err != nil {
		t.Fatalf("lost connection should be silent, got %v", err)
	}

	ft.emitErr = errors.New("broken pipe")
	if err := c.Subscribe(models.TopicNews, nil); err == nil {
		t.Fatalf("expected write error")
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	c, ft := connected(t)
	c.Connect(context.Background())
	c.Connect(context.Background())
	if ft.connects != 1 {
		t.Fatalf("transport connects = %d", ft.connects)
	}

	// also while still connecting
	ft2 := &fakeTransport{}
	c2 := New(ft2, nil, nil)
	c2.Connect(context.Background())
	c2.Connect(context.Background())
	if ft2.connects != 1 || c2.State() != StateConnecting {
		t.Fatalf("connects=%d state=%s", ft2.connects, c2.State())
	}
}

func TestLifecycleEvents(t *testing.T) {
	ft := &fakeTransport{}
	c := New(ft, nil, nil)

	var got []string
	record := func(name string) Listener {
		return func(p json.RawMessage) { got = append(got, name+" "+string(p)) }
	}
	c.On(EventConnected, record(EventConnected))
	c.On(EventConnectError, record(EventConnectError))
	c.On(EventDisconnected, record(EventDisconnected))
	c.On(EventServerConnected, record(EventServerConnected))
	c.On(EventReconnectFailed, record(EventReconnectFailed))

	c.Connect(context.Background())
	h := ft.h()
	h.OnConnectError(errors.New("dial refused"))
	if c.State() != StateConnecting {
		t.Fatalf("state after connect error = %s", c.State())
	}
	h.OnConnect("sock-1")
	h.OnEvent("connected", json.RawMessage(`{"client_id":"sock-1"}`))
	h.OnDisconnect(socketio.ReasonTransportClose)
	if c.State() != StateDisconnected {
		t.Fatalf("state after loss = %s", c.State())
	}
	h.OnReconnectFailed()

	want := []string{
		`connect_error {"error":"dial refused"}`,
		`connected {"client_id":"sock-1"}`,
		`server_connected {"client_id":"sock-1"}`,
		`disconnected {"reason":"transport close"}`,
		`reconnect_failed `,
	}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %q, want %q", i, got[i], want[i])
		}
	}

	// the session is over, so Connect starts a new one
	c.Connect(context.Background())
	if ft.connects != 2 {
		t.Fatalf("connects = %d", ft.connects)
	}
}

func TestDisconnectIgnoresStaleCallbacks(t *testing.T) {
	c, ft := connected(t)
	stale := ft.h()

	var reasons []string
	c.OnDisconnected(func(ev *models.DisconnectEvent) { reasons = append(reasons, ev.Reason) })
	events := 0
	c.On(EventRiskAlert, func(json.RawMessage) { events++ })

	c.Disconnect()
	c.Disconnect()
	if ft.closes != 1 {
		t.Fatalf("closes = %d", ft.closes)
	}
	if len(reasons) != 1 || reasons[0] != socketio.ReasonClientDisconnect {
		t.Fatalf("reasons = %v", reasons)
	}

	stale.OnConnect("late")
	stale.OnEvent(EventRiskAlert, json.RawMessage(`{}`))
	stale.OnDisconnect(socketio.ReasonTransportError)
	if c.State() != StateDisconnected || events != 0 || len(reasons) != 1 {
		t.Fatalf("stale callbacks leaked: state=%s events=%d reasons=%v", c.State(), events, reasons)
	}
	if st := c.Status(); st.Connected || st.SocketID != "" {
		t.Fatalf("status = %+v", st)
	}
}

// gatedTransport blocks in Connect until released and logs call order.
type gatedTransport struct {
	fakeTransport
	entered chan struct{}
	release chan struct{}
	logMu   sync.Mutex
	calls   []string
}

func (g *gatedTransport) Connect(ctx context.Context, h socketio.Handlers) {
	close(g.entered)
	<-g.release
	g.fakeTransport.Connect(ctx, h)
	g.record("connect")
}

func (g *gatedTransport) Close() error {
	g.record("close")
	return g.fakeTransport.Close()
}

func (g *gatedTransport) record(call string) {
	g.logMu.Lock()
	g.calls = append(g.calls, call)
	g.logMu.Unlock()
}

func TestDisconnectDuringConnectClosesTheStartedSession(t *testing.T) {
	gt := &gatedTransport{entered: make(chan struct{}), release: make(chan struct{})}
	c := New(gt, nil, nil)

	connectDone := make(chan struct{})
	go func() {
		c.Connect(context.Background())
		close(connectDone)
	}()
	<-gt.entered

	disconnectDone := make(chan struct{})
	go func() {
		c.Disconnect()
		close(disconnectDone)
	}()
	time.Sleep(20 * time.Millisecond)
	close(gt.release)

	for _, ch := range []chan struct{}{connectDone, disconnectDone} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("lifecycle call did not return")
		}
	}

	gt.logMu.Lock()
	calls := append([]string(nil), gt.calls...)
	gt.logMu.Unlock()
	if len(calls) != 2 || calls[0] != "connect" || calls[1] != "close" {
		t.Fatalf("transport calls = %v, want [connect close]", calls)
	}
	if c.State() != StateDisconnected {
		t.Fatalf("state = %s", c.State())
	}
}

func TestRiskAlertFanOutSharesPayload(t *testing.T) {
	c, ft := connected(t)

	payload := json.RawMessage(`{"alert":{"id":9,"ts_code":"000001.SZ","alert_level":"high"},"timestamp":"2024-03-01T09:30:00"}`)
	var seen []json.RawMessage
	for i := 0; i < 3; i++ {
		c.On(EventRiskAlert, func(p json.RawMessage) { seen = append(seen, p) })
	}

	ft.h().OnEvent(EventRiskAlert, payload)
	if len(seen) != 3 {
		t.Fatalf("listeners ran %d times", len(seen))
	}
	for i, p := range seen {
		if &p[0] != &payload[0] || len(p) != len(payload) {
			t.Fatalf("listener %d got a different payload", i)
		}
	}
}

func TestTypedHelpers(t *testing.T) {
	c, ft := connected(t)

	var alert *models.RiskAlertEvent
	c.OnRiskAlert(func(ev *models.RiskAlertEvent) { alert = ev })
	var update *models.MarketDataUpdate
	c.OnMarketData(func(u *models.MarketDataUpdate) { update = u })
	var ack *models.SubscriptionAck
	c.OnSubscribed(func(a *models.SubscriptionAck) { ack = a })

	h := ft.h()
	h.OnEvent(EventRiskAlert, json.RawMessage(`{"alert":{"id":9,"ts_code":"000001.SZ","alert_level":"high"}}`))
	h.OnEvent(EventMarketData, json.RawMessage(`{"symbol":"600000.SH","data":{"close":10.5}}`))
	h.OnEvent(EventSubscribed, json.RawMessage(`{"type":"risk_alerts","room":"risk_alerts_general"}`))

	if alert == nil || alert.Alert.ID != 9 || alert.Alert.AlertLevel != models.AlertLevelHigh {
		t.Fatalf("alert = %+v", alert)
	}
	if update == nil || update.Symbol != "600000.SH" || string(update.Data) != `{"close":10.5}` {
		t.Fatalf("update = %+v", update)
	}
	if ack == nil || ack.Room != "risk_alerts_general" {
		t.Fatalf("ack = %+v", ack)
	}

	// undecodable payloads are dropped, not delivered
	alert = nil
	h.OnEvent(EventRiskAlert, json.RawMessage(`"oops"`))
	h.OnEvent(EventRiskAlert, nil)
	if alert != nil {
		t.Fatalf("bad payload delivered: %+v", alert)
	}
}

func TestStatus(t *testing.T) {
	c, _ := connected(t)
	st := c.Status()
	if st.State != string(StateConnected) || !st.Connected || st.SocketID != "sock-1" {
		t.Fatalf("status = %+v", st)
	}
}
