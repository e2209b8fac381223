package di

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"StockWatch/internal/apiclient"
	"StockWatch/internal/domain/repository"
	"StockWatch/internal/handler/api"
	mid "StockWatch/internal/middleware"
	"StockWatch/internal/realtime"
	internalrepo "StockWatch/internal/repository"
	"StockWatch/internal/usecase"
	"StockWatch/pkg/cache"
	"StockWatch/pkg/config"
	xhttp "StockWatch/pkg/http"
	pkgkafka "StockWatch/pkg/kafka"
	"StockWatch/pkg/logger"
	"StockWatch/pkg/metrics"
	"StockWatch/pkg/server"
	"StockWatch/pkg/socketio"
)

// ProvideAlertRelay creates the Kafka relay, or a no-op relay when Kafka is disabled.
func ProvideAlertRelay(cfg *config.Config) (repository.AlertRelay, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopRelay{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(prometheus.DefaultRegisterer),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaRelay(producer, cfg.Kafka.AlertTopic), nil
}

// ProvideLogger builds the root logger. Aggregated error logs go to
// kafka.log_topic when the collector is enabled and Kafka is on.
func ProvideLogger(cfg *config.Config, relay repository.AlertRelay) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if pub, ok := relay.(logger.Publisher); ok && cfg.Log.Collector.Enabled {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.CountThreshold,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      pub,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

func ProvideCache(cfg *config.Config) (cache.Service, error) {
	svc, err := cache.New(cache.Config{
		Backend:       cfg.Cache.Backend,
		MemoryMaxSize: cfg.Cache.MemoryMaxSize,
		DefaultTTL:    cfg.Cache.TTL,
		MemoryTTL:     cfg.Cache.MemoryTTL,
		Redis: cache.RedisConfig{
			Host:     cfg.Cache.Redis.Host,
			Port:     cfg.Cache.Redis.Port,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
			PoolSize: cfg.Cache.Redis.PoolSize,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return svc, nil
}

func ProvideSnapshotStore(c cache.Service, cfg *config.Config) repository.SnapshotStore {
	return internalrepo.NewCacheSnapshotStore(c, cfg.Cache.TTL, cfg.Monitor.AlertsKeep)
}

func ProvideAPIClient(cfg *config.Config, l *logger.Logger, m repository.Metrics) (*apiclient.Client, error) {
	c, err := apiclient.New(cfg.APIBaseURL(), l.Named("apiclient"), m,
		xhttp.WithTimeout(cfg.Backend.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}
	return c, nil
}

// ProvideRealtimeClient creates the single push connection of the process.
func ProvideRealtimeClient(cfg *config.Config, l *logger.Logger, m repository.Metrics) (*realtime.Client, error) {
	rc := cfg.Realtime
	transport, err := socketio.NewClient(cfg.Backend.BaseURL,
		socketio.WithPath(rc.Path),
		socketio.WithReconnection(rc.Reconnection, rc.ReconnectionAttempts, rc.ReconnectionDelay, rc.ReconnectionDelayMax, rc.RandomizationFactor),
		socketio.WithDialTimeout(rc.DialTimeout),
		socketio.WithLogger(l.Named("socketio")),
	)
	if err != nil {
		return nil, fmt.Errorf("socket.io client: %w", err)
	}
	return realtime.New(transport, l.Named("realtime"), m), nil
}

func ProvideEventPipeline(store repository.SnapshotStore, m repository.Metrics, cfg *config.Config, l *logger.Logger) *mid.EventPipeline {
	return mid.NewEventPipeline(store, m,
		mid.WithMaxRPS(cfg.Monitor.MaxUpdatesPerSec),
		mid.WithBufferSize(cfg.Monitor.BufferSize),
		mid.WithLogger(l.Named("pipeline")),
	)
}

func ProvideMonitor(
	cfg *config.Config,
	rt *realtime.Client,
	client *apiclient.Client,
	pipe *mid.EventPipeline,
	store repository.SnapshotStore,
	relay repository.AlertRelay,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.Monitor {
	return usecase.NewMonitor(usecase.MonitorConfig{
		Topics:        cfg.Monitor.Topics,
		Symbols:       cfg.Monitor.Symbols,
		LoadWatchlist: cfg.Monitor.LoadWatchlist,
		Heartbeat:     cfg.Monitor.Heartbeat,
	}, rt, client, pipe, store, relay, m, l)
}

func ProvideDashboardHandler(l *logger.Logger, rt *realtime.Client, store repository.SnapshotStore, client *apiclient.Client) *api.DashboardHandler {
	return api.NewDashboardHandler(l.Named("http"), rt, store, client)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	monitor *usecase.Monitor,
	handler *api.DashboardHandler,
	relay repository.AlertRelay,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, monitor, []xhttp.Handler{handler}, relay, c)
}
