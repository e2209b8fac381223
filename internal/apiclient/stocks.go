package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"StockWatch/internal/domain/models"
)

// GetStocks lists the stock catalogue of the active data source.
func (c *Client) GetStocks(ctx context.Context, q models.StockQuery) (*models.Response[[]models.Stock], error) {
	if err := validate(ctx, &q); err != nil {
		return nil, err
	}
	query := url.Values{}
	if q.Exchange != "" {
		query.Set("exchange", q.Exchange)
	}
	if q.ListStatus != "" {
		query.Set("list_status", q.ListStatus)
	}
	return send[[]models.Stock](ctx, c, call{method: http.MethodGet, route: "/stocks", path: "/stocks", query: query})
}

func (c *Client) GetRealtimeQuotes(ctx context.Context, symbols []string) (*models.Response[[]models.Quote], error) {
	req := models.RealtimeQuotesRequest{Symbols: symbols}
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[[]models.Quote](ctx, c, call{method: http.MethodPost, route: "/stocks/realtime", path: "/stocks/realtime", body: req})
}

func (c *Client) GetStockDailyData(ctx context.Context, tsCode string, q models.DailyQuery) (*models.Response[[]models.DailyBar], error) {
	if err := requireCode(tsCode); err != nil {
		return nil, err
	}
	if err := validate(ctx, &q); err != nil {
		return nil, err
	}
	query := url.Values{}
	if q.StartDate != "" {
		query.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		query.Set("end_date", q.EndDate)
	}
	query.Set("limit", strconv.Itoa(q.Limit))
	return send[[]models.DailyBar](ctx, c, call{
		method: http.MethodGet,
		route:  "/stocks/:ts_code/daily",
		path:   "/stocks/" + url.PathEscape(tsCode) + "/daily",
		query:  query,
	})
}

func (c *Client) SyncStockList(ctx context.Context, force bool) (*models.Ack, error) {
	return send[json.RawMessage](ctx, c, call{
		method: http.MethodPost,
		route:  "/stocks/sync",
		path:   "/stocks/sync",
		body:   models.SyncStocksRequest{ForceUpdate: force},
	})
}

func (c *Client) SyncStockDailyData(ctx context.Context, tsCode string, r models.SyncRangeRequest) (*models.Ack, error) {
	if err := requireCode(tsCode); err != nil {
		return nil, err
	}
	if err := validate(ctx, &r); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{
		method: http.MethodPost,
		route:  "/stocks/:ts_code/daily/sync",
		path:   "/stocks/" + url.PathEscape(tsCode) + "/daily/sync",
		body:   r,
	})
}
