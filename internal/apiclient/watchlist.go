package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"StockWatch/internal/domain/models"
)

func (c *Client) GetWatchlist(ctx context.Context) (*models.Response[[]models.WatchlistItem], error) {
	return send[[]models.WatchlistItem](ctx, c, call{method: http.MethodGet, route: "/watchlist", path: "/watchlist"})
}

func (c *Client) AddToWatchlist(ctx context.Context, req models.WatchlistAddRequest) (*models.Response[models.WatchlistItem], error) {
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[models.WatchlistItem](ctx, c, call{method: http.MethodPost, route: "/watchlist", path: "/watchlist", body: req})
}

func (c *Client) RemoveFromWatchlist(ctx context.Context, id int64) (*models.Ack, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{method: http.MethodDelete, route: "/watchlist/:id", path: idPath("/watchlist", id, "")})
}

// UpdateWatchlist edits the note of an entry.
func (c *Client) UpdateWatchlist(ctx context.Context, id int64, req models.WatchlistUpdateRequest) (*models.Response[models.WatchlistItem], error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[models.WatchlistItem](ctx, c, call{method: http.MethodPut, route: "/watchlist/:id", path: idPath("/watchlist", id, ""), body: req})
}

func (c *Client) SyncWatchlistStock(ctx context.Context, id int64, r models.SyncRangeRequest) (*models.Ack, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validate(ctx, &r); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{method: http.MethodPost, route: "/watchlist/:id/sync", path: idPath("/watchlist", id, "/sync"), body: r})
}

func (c *Client) SyncAllWatchlist(ctx context.Context, r models.SyncRangeRequest) (*models.Ack, error) {
	if err := validate(ctx, &r); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{method: http.MethodPost, route: "/watchlist/sync-all", path: "/watchlist/sync-all", body: r})
}
