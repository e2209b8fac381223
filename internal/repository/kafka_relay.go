package repository

import (
	"context"

	"StockWatch/internal/domain/models"
	"StockWatch/internal/domain/repository"
	pkgkafka "StockWatch/pkg/kafka"
	"StockWatch/pkg/logger"
)

// KafkaRelay publishes pushed risk alerts, keyed by ts_code so one stock's
// alerts stay ordered within a partition. It also serves as the log
// collector's publisher.
type KafkaRelay struct {
	producer *pkgkafka.Producer
	topic    string
}

var (
	_ repository.AlertRelay = (*KafkaRelay)(nil)
	_ logger.Publisher      = (*KafkaRelay)(nil)
)

func NewKafkaRelay(producer *pkgkafka.Producer, topic string) *KafkaRelay {
	return &KafkaRelay{producer: producer, topic: topic}
}

func (r *KafkaRelay) Relay(ctx context.Context, ev *models.RiskAlertEvent) error {
	if ev == nil {
		return nil
	}
	return r.producer.Publish(ctx, r.topic, []byte(ev.Alert.TSCode), ev)
}

func (r *KafkaRelay) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return r.producer.Publish(ctx, topic, nil, payload)
}

func (r *KafkaRelay) Close() error {
	if r.producer != nil {
		return r.producer.Close()
	}
	return nil
}

// NoopRelay drops alerts. Used when Kafka is disabled.
type NoopRelay struct{}

var _ repository.AlertRelay = NoopRelay{}

func (NoopRelay) Relay(context.Context, *models.RiskAlertEvent) error { return nil }
func (NoopRelay) Close() error                                        { return nil }
