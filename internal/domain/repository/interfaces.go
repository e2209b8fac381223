package repository

import (
	"context"
	"errors"

	"StockWatch/internal/domain/models"
)

// ErrNotFound is returned when no snapshot exists for a key.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore keeps the latest pushed state for the dashboard.
type SnapshotStore interface {
	SaveMarketData(ctx context.Context, u *models.MarketDataUpdate) error
	MarketData(ctx context.Context, symbol string) (*models.MarketDataUpdate, error)
	AppendAlert(ctx context.Context, ev *models.RiskAlertEvent) error
	RecentAlerts(ctx context.Context, limit int) ([]models.RiskAlertEvent, error)
}

// AlertRelay forwards pushed risk alerts to downstream consumers.
type AlertRelay interface {
	Relay(ctx context.Context, ev *models.RiskAlertEvent) error
	Close() error
}

type Metrics interface {
	RecordEvent(event string)
	RecordListenerPanic(event string)
	RecordConnectionState(state string)
	RecordRequest(method, endpoint string, status int, seconds float64)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}
