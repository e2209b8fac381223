package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
)

type memWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestPublishEncodesValue(t *testing.T) {
	w := &memWriter{}
	reg := prometheus.NewRegistry()
	p, err := NewProducer(WithWriter(w), WithRegisterer(reg))
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}

	if err := p.Publish(context.Background(), "alerts", []byte("000001.SZ"), map[string]int{"id": 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	m := w.msgs[0]
	if m.Topic != "alerts" || string(m.Key) != "000001.SZ" || string(m.Value) != `{"id":7}` {
		t.Fatalf("message = %+v", m)
	}
	if got := testutil.ToFloat64(p.metrics.msgsTotal.WithLabelValues("alerts", "gzip", "ok")); got != 1 {
		t.Fatalf("messages metric = %v", got)
	}
}

func TestPublishCountsErrors(t *testing.T) {
	boom := errors.New("leader not available")
	w := &memWriter{err: boom}
	p, err := NewProducer(WithWriter(w), WithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}

	err = p.PublishBatch(context.Background(), "logs", []Message{{Value: "a"}, {Value: "b"}})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if got := testutil.ToFloat64(p.metrics.errsTotal.WithLabelValues("logs")); got != 1 {
		t.Fatalf("errors metric = %v", got)
	}
}

func TestNewProducerValidatesWriterSettings(t *testing.T) {
	brokers := WithBrokers([]string{"localhost:9092"})
	if _, err := NewProducer(brokers, WithCompression("brotli")); err == nil {
		t.Fatalf("expected compression error")
	}
	if _, err := NewProducer(brokers, WithRequiredAcks(2)); err == nil {
		t.Fatalf("expected acks error")
	}
	p, err := NewProducer(brokers, WithCompression("zstd"), WithHashByKey(true))
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	kw, ok := p.writer.(*kafka.Writer)
	if !ok {
		t.Fatalf("writer = %T", p.writer)
	}
	if _, ok := kw.Balancer.(*kafka.Hash); !ok || kw.Compression != kafka.Zstd {
		t.Fatalf("writer balancer %T compression %v", kw.Balancer, kw.Compression)
	}
	_ = p.Close()
}
