package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockWatch/internal/domain/models"
	domrepo "StockWatch/internal/domain/repository"
	"StockWatch/internal/service/ratelimit"
	"StockWatch/pkg/logger"
	"StockWatch/pkg/util"
)

// Sink receives accepted market data. domrepo.SnapshotStore satisfies it.
type Sink interface {
	SaveMarketData(ctx context.Context, u *models.MarketDataUpdate) error
}

var (
	ErrInvalidUpdate = errors.New("invalid market data update")
)

const (
	minRetryBackoff = 50 * time.Millisecond
	maxRetryBackoff = 2 * time.Second
)

// EventPipeline sits between the push listeners and the snapshot store.
// It validates, throttles per symbol, and buffers when the store fails.
// The buffer keeps at most one update per symbol, the newest one.
type EventPipeline struct {
	sink    Sink
	metrics domrepo.Metrics
	log     *logger.Logger
	limiter *ratelimit.Limiter
	maxRPS  int
	bufSize int

	// saveMu orders store writes so a retry never lands after a newer save.
	saveMu sync.Mutex

	bufMu   sync.Mutex
	pending map[string]*models.MarketDataUpdate
	order   []string
	wake    chan struct{}

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type PipelineOption func(*EventPipeline)

// WithMaxRPS sets the max accepted updates per second per symbol. 0 disables throttling.
func WithMaxRPS(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n >= 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize caps how many symbols may wait for retry while the store is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

func WithLogger(l *logger.Logger) PipelineOption {
	return func(p *EventPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

func NewEventPipeline(sink Sink, metrics domrepo.Metrics, opts ...PipelineOption) *EventPipeline {
	p := &EventPipeline{
		sink:    sink,
		metrics: metrics,
		log:     logger.Nop(),
		maxRPS:  20,
		bufSize: 1000,
		pending: make(map[string]*models.MarketDataUpdate),
		wake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.limiter = ratelimit.New(float64(p.maxRPS), float64(p.maxRPS))
	return p
}

// Start launches the background retry loop for buffered updates.
func (p *EventPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.drain(ctx, stop)
	}()
}

func (p *EventPipeline) drain(ctx context.Context, stop <-chan struct{}) {
	backoff := minRetryBackoff
	for {
		for {
			found, err := p.retryOne(ctx)
			if !found {
				break
			}
			if err == nil {
				backoff = minRetryBackoff
				continue
			}
			p.metrics.RecordError("pipeline_flush")
			if backoff < maxRetryBackoff {
				backoff *= 2
			}
			if !sleep(ctx, stop, backoff) {
				return
			}
		}

		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-p.wake:
		}
	}
}

func sleep(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryOne saves the oldest buffered update. found is false when the buffer is empty.
func (p *EventPipeline) retryOne(ctx context.Context) (found bool, err error) {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	u := p.pop()
	if u == nil {
		return false, nil
	}
	if err := p.sink.SaveMarketData(ctx, u); err != nil {
		p.buffer(u)
		return true, err
	}
	return true, nil
}

// Stop ends the retry loop. Updates still buffered are kept for the next Start.
func (p *EventPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	p.mu.Unlock()
	p.wg.Wait()
}

// Pending reports how many symbols wait for retry.
func (p *EventPipeline) Pending() int {
	p.bufMu.Lock()
	defer p.bufMu.Unlock()
	return len(p.pending)
}

// Process validates, throttles and stores u. Throttled updates are dropped
// without error; a store failure buffers u and returns the error.
func (p *EventPipeline) Process(ctx context.Context, u *models.MarketDataUpdate) error {
	start := time.Now()
	if err := validateUpdate(u); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	u.Symbol = util.NormalizeSymbol(u.Symbol)

	if !p.limiter.Allow(u.Symbol) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	p.saveMu.Lock()
	err := p.sink.SaveMarketData(ctx, u)
	if err == nil {
		p.forget(u.Symbol)
	} else {
		p.buffer(u)
	}
	p.saveMu.Unlock()

	if err != nil {
		p.metrics.RecordError("pipeline_process")
		p.log.Warn("snapshot store unavailable, buffering update",
			logger.String("symbol", u.Symbol),
			logger.Error(err),
		)
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// buffer stores u as the pending update of its symbol, replacing an older one.
func (p *EventPipeline) buffer(u *models.MarketDataUpdate) {
	p.bufMu.Lock()
	defer p.bufMu.Unlock()

	if _, ok := p.pending[u.Symbol]; ok {
		p.pending[u.Symbol] = u
		return
	}
	if len(p.pending) >= p.bufSize {
		p.metrics.RecordError("pipeline_buffer_full")
		return
	}
	p.pending[u.Symbol] = u
	p.order = append(p.order, u.Symbol)

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// forget drops the pending update of symbol after a newer one was saved.
func (p *EventPipeline) forget(symbol string) {
	p.bufMu.Lock()
	defer p.bufMu.Unlock()

	if _, ok := p.pending[symbol]; !ok {
		return
	}
	delete(p.pending, symbol)
	for i, s := range p.order {
		if s == symbol {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *EventPipeline) pop() *models.MarketDataUpdate {
	p.bufMu.Lock()
	defer p.bufMu.Unlock()

	if len(p.order) == 0 {
		return nil
	}
	symbol := p.order[0]
	p.order = p.order[1:]
	u := p.pending[symbol]
	delete(p.pending, symbol)
	return u
}

func validateUpdate(u *models.MarketDataUpdate) error {
	if u == nil {
		return fmt.Errorf("%w: nil", ErrInvalidUpdate)
	}
	if strings.TrimSpace(u.Symbol) == "" {
		return fmt.Errorf("%w: symbol empty", ErrInvalidUpdate)
	}
	return nil
}
