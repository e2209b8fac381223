package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"StockWatch/internal/domain/models"
)

// DefaultAlertRecordLimit is used when GetAlertRecords gets a non-positive limit.
const DefaultAlertRecordLimit = 50

func (c *Client) GetAlertRules(ctx context.Context) (*models.Response[[]models.AlertRule], error) {
	return send[[]models.AlertRule](ctx, c, call{method: http.MethodGet, route: "/rules", path: "/rules"})
}

func (c *Client) CreateAlertRule(ctx context.Context, req models.AlertRuleRequest) (*models.Response[models.AlertRule], error) {
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[models.AlertRule](ctx, c, call{method: http.MethodPost, route: "/rules", path: "/rules", body: req})
}

func (c *Client) UpdateAlertRule(ctx context.Context, id int64, req models.AlertRuleRequest) (*models.Response[models.AlertRule], error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[models.AlertRule](ctx, c, call{method: http.MethodPut, route: "/rules/:id", path: idPath("/rules", id, ""), body: req})
}

func (c *Client) DeleteAlertRule(ctx context.Context, id int64) (*models.Ack, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{method: http.MethodDelete, route: "/rules/:id", path: idPath("/rules", id, "")})
}

// GetAlertRecords returns the most recent triggered alerts.
func (c *Client) GetAlertRecords(ctx context.Context, limit int) (*models.Response[[]models.AlertRecord], error) {
	if limit <= 0 {
		limit = DefaultAlertRecordLimit
	}
	query := url.Values{"limit": []string{strconv.Itoa(limit)}}
	return send[[]models.AlertRecord](ctx, c, call{method: http.MethodGet, route: "/alerts", path: "/alerts", query: query})
}
