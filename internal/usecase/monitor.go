package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"StockWatch/internal/domain/models"
	drepo "StockWatch/internal/domain/repository"
	"StockWatch/internal/realtime"
	"StockWatch/pkg/logger"
	"StockWatch/pkg/util"
)

// WatchlistSource lists the user's watched stocks. *apiclient.Client satisfies it.
type WatchlistSource interface {
	GetWatchlist(ctx context.Context) (*models.Response[[]models.WatchlistItem], error)
}

// UpdateProcessor accepts pushed market data. *middleware.EventPipeline satisfies it.
type UpdateProcessor interface {
	Process(ctx context.Context, u *models.MarketDataUpdate) error
	Start(ctx context.Context)
	Stop()
}

type MonitorConfig struct {
	Topics        []string
	Symbols       []string
	LoadWatchlist bool
	Heartbeat     time.Duration
}

const (
	watchlistTimeout = 10 * time.Second
	relayTimeout     = 5 * time.Second
)

// Monitor keeps the process subscribed to the backend's push channel and
// routes what arrives into the snapshot store and the alert relay.
type Monitor struct {
	cfg       MonitorConfig
	client    *realtime.Client
	watchlist WatchlistSource
	pipeline  UpdateProcessor
	store     drepo.SnapshotStore
	relay     drepo.AlertRelay
	metrics   drepo.Metrics
	log       *logger.Logger

	mu      sync.Mutex
	running bool
	symbols []string
	regs    []*realtime.Registration
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewMonitor(
	cfg MonitorConfig,
	client *realtime.Client,
	watchlist WatchlistSource,
	pipeline UpdateProcessor,
	store drepo.SnapshotStore,
	relay drepo.AlertRelay,
	metrics drepo.Metrics,
	log *logger.Logger,
) *Monitor {
	if log == nil {
		log = logger.Nop()
	}
	return &Monitor{
		cfg:       cfg,
		client:    client,
		watchlist: watchlist,
		pipeline:  pipeline,
		store:     store,
		relay:     relay,
		metrics:   metrics,
		log:       log.Named("monitor"),
	}
}

// Start resolves the symbol set, wires listeners and connects. Connection
// failures surface later as events, so Start only fails on misuse.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.ctx, m.cancel = context.WithCancel(ctx)
	runCtx := m.ctx
	m.mu.Unlock()

	symbols := m.resolveSymbols(runCtx)
	m.mu.Lock()
	m.symbols = symbols
	m.regs = m.register()
	m.mu.Unlock()

	m.log.Info("monitor starting",
		logger.Strings("topics", m.cfg.Topics),
		logger.Strings("symbols", symbols),
	)

	m.pipeline.Start(runCtx)
	m.client.Connect(runCtx)

	if m.cfg.Heartbeat > 0 {
		m.wg.Add(1)
		go m.heartbeat(runCtx)
	}
	return nil
}

// Stop removes the listeners and disconnects. It is safe to call repeatedly.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	regs := m.regs
	m.regs = nil
	cancel := m.cancel
	m.mu.Unlock()

	for _, r := range regs {
		r.Remove()
	}
	cancel()
	m.wg.Wait()
	m.client.Disconnect()
	m.pipeline.Stop()
	m.log.Info("monitor stopped")
}

// Symbols is the symbol set market_data is subscribed for.
func (m *Monitor) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.symbols))
	copy(out, m.symbols)
	return out
}

func (m *Monitor) resolveSymbols(ctx context.Context) []string {
	configured := normalizeSymbols(m.cfg.Symbols)
	if !m.cfg.LoadWatchlist || m.watchlist == nil {
		return configured
	}

	wctx, cancel := context.WithTimeout(ctx, watchlistTimeout)
	defer cancel()
	resp, err := m.watchlist.GetWatchlist(wctx)
	if err != nil {
		m.log.Warn("watchlist unavailable, using configured symbols", logger.Error(err))
		return configured
	}

	codes := make([]string, 0, len(resp.Data))
	for _, item := range resp.Data {
		codes = append(codes, item.TSCode)
	}
	if loaded := normalizeSymbols(codes); len(loaded) > 0 {
		return loaded
	}
	return configured
}

func (m *Monitor) register() []*realtime.Registration {
	c := m.client
	return []*realtime.Registration{
		c.On(realtime.EventConnected, func(json.RawMessage) { m.subscribeAll() }),
		c.OnMarketData(m.onMarketData),
		c.OnRiskAlert(m.onRiskAlert),
		realtime.OnDecoded(c, realtime.EventConnectError, func(ev *models.ConnectErrorEvent) {
			m.log.Warn("push connection failed", logger.String("error", ev.Error))
		}),
		c.OnDisconnected(func(ev *models.DisconnectEvent) {
			m.log.Warn("push connection lost", logger.String("reason", ev.Reason))
		}),
		c.On(realtime.EventReconnectFailed, func(json.RawMessage) {
			m.log.Error("push connection abandoned after retries")
		}),
		realtime.OnDecoded(c, realtime.EventError, func(ev *models.ServerError) {
			m.log.Warn("server reported error", logger.String("message", ev.Message))
		}),
	}
}

// subscribeAll runs on every (re)connect; the server forgets rooms when the
// socket drops.
func (m *Monitor) subscribeAll() {
	symbols := m.Symbols()
	for _, topic := range m.cfg.Topics {
		if topic != models.TopicMarketData {
			m.subscribe(topic, nil)
			continue
		}
		if len(symbols) == 0 {
			m.log.Warn("market_data requested without symbols")
			continue
		}
		for _, sym := range symbols {
			m.subscribe(topic, map[string]any{"symbol": sym})
		}
	}
}

func (m *Monitor) subscribe(topic string, params map[string]any) {
	if err := m.client.Subscribe(topic, params); err != nil {
		m.metrics.RecordError("subscribe")
		m.log.Warn("subscribe failed", logger.String("topic", topic), logger.Error(err))
	}
}

func (m *Monitor) onMarketData(u *models.MarketDataUpdate) {
	if err := m.pipeline.Process(m.runContext(), u); err != nil {
		m.log.Debug("market data not stored", logger.String("symbol", u.Symbol), logger.Error(err))
	}
}

func (m *Monitor) onRiskAlert(ev *models.RiskAlertEvent) {
	ctx, cancel := context.WithTimeout(m.runContext(), relayTimeout)
	defer cancel()

	if err := m.store.AppendAlert(ctx, ev); err != nil {
		m.metrics.RecordError("alert_store")
		m.log.Warn("risk alert not stored", logger.Int64("alert_id", ev.Alert.ID), logger.Error(err))
	}
	start := time.Now()
	if err := m.relay.Relay(ctx, ev); err != nil {
		m.metrics.RecordError("alert_relay")
		m.log.Error("risk alert relay failed",
			logger.Int64("alert_id", ev.Alert.ID),
			logger.String("ts_code", ev.Alert.TSCode),
			logger.Error(err),
		)
		return
	}
	m.metrics.RecordLatency("alert_relay", time.Since(start).Seconds())
}

func (m *Monitor) heartbeat(ctx context.Context) {
	defer m.wg.Done()
	t := time.NewTicker(m.cfg.Heartbeat)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !m.client.IsConnected() {
				continue
			}
			if err := m.client.Ping(); err != nil {
				m.log.Warn("heartbeat failed", logger.Error(err))
			}
		}
	}
}

func (m *Monitor) runContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx == nil {
		return context.Background()
	}
	return m.ctx
}

func normalizeSymbols(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = util.NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
