package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockWatch/internal/domain/models"
	"StockWatch/internal/domain/repository"
	"StockWatch/pkg/cache"
	"StockWatch/pkg/util"
)

const (
	marketKeyPrefix = "market"
	recentAlertsKey = "alerts:recent"
)

// CacheSnapshotStore keeps the latest market_data_update per symbol and a
// bounded newest-first list of risk alerts in a cache.Service.
type CacheSnapshotStore struct {
	cache      cache.Service
	ttl        time.Duration
	alertsKeep int
}

var _ repository.SnapshotStore = (*CacheSnapshotStore)(nil)

func NewCacheSnapshotStore(c cache.Service, ttl time.Duration, alertsKeep int) *CacheSnapshotStore {
	if alertsKeep <= 0 {
		alertsKeep = 100
	}
	return &CacheSnapshotStore{cache: c, ttl: ttl, alertsKeep: alertsKeep}
}

func marketKey(symbol string) string {
	return cache.GenerateKey(marketKeyPrefix, util.NormalizeSymbol(symbol))
}

func (s *CacheSnapshotStore) SaveMarketData(ctx context.Context, u *models.MarketDataUpdate) error {
	if u == nil || u.Symbol == "" {
		return fmt.Errorf("market data without symbol")
	}
	if err := s.cache.Set(ctx, marketKey(u.Symbol), u, s.ttl); err != nil {
		return fmt.Errorf("save market data %s: %w", u.Symbol, err)
	}
	return nil
}

func (s *CacheSnapshotStore) MarketData(ctx context.Context, symbol string) (*models.MarketDataUpdate, error) {
	var u models.MarketDataUpdate
	if err := s.cache.Get(ctx, marketKey(symbol), &u); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("load market data %s: %w", symbol, err)
	}
	return &u, nil
}

func (s *CacheSnapshotStore) AppendAlert(ctx context.Context, ev *models.RiskAlertEvent) error {
	if ev == nil {
		return nil
	}
	if err := s.cache.PushCapped(ctx, recentAlertsKey, ev, s.alertsKeep); err != nil {
		return fmt.Errorf("append alert: %w", err)
	}
	return nil
}

// RecentAlerts returns at most limit alerts, newest first. A non-positive
// limit returns everything kept.
func (s *CacheSnapshotStore) RecentAlerts(ctx context.Context, limit int) ([]models.RiskAlertEvent, error) {
	if limit <= 0 || limit > s.alertsKeep {
		limit = s.alertsKeep
	}
	alerts, err := cache.RangeTyped[models.RiskAlertEvent](ctx, s.cache, recentAlertsKey, limit)
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	return alerts, nil
}
