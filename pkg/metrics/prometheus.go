package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectionStates = []string{"disconnected", "connecting", "connected"}

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	events          *prometheus.CounterVec
	listenerPanics  *prometheus.CounterVec
	connectionState *prometheus.GaugeVec
	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec

	mu sync.Mutex
}

// New creates a recorder registered on reg. Pass prometheus.DefaultRegisterer
// to expose the series on /metrics.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		events: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockwatch_realtime_events_total",
				Help: "Realtime events dispatched to listeners, by event name",
			},
			[]string{"event"},
		),
		listenerPanics: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockwatch_listener_panics_total",
				Help: "Realtime listeners that panicked, by event name",
			},
			[]string{"event"},
		),
		connectionState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockwatch_realtime_connection_state",
				Help: "1 for the current realtime connection state, 0 otherwise",
			},
			[]string{"state"},
		),
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockwatch_api_requests_total",
				Help: "Backend REST calls by endpoint and status (0 = no response)",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockwatch_api_request_duration_seconds",
				Help:    "Backend REST call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockwatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockwatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordEvent(event string) {
	r.events.WithLabelValues(event).Inc()
}

func (r *Recorder) RecordListenerPanic(event string) {
	r.listenerPanics.WithLabelValues(event).Inc()
}

// RecordConnectionState sets state to 1 and every other known state to 0.
func (r *Recorder) RecordConnectionState(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range connectionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		r.connectionState.WithLabelValues(s).Set(v)
	}
}

// RecordRequest records one REST call. endpoint should be a route template
// such as /watchlist/:id, not the concrete path.
func (r *Recorder) RecordRequest(method, endpoint string, status int, seconds float64) {
	r.requests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	r.requestLatency.WithLabelValues(method, endpoint).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
