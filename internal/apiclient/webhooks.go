package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"StockWatch/internal/domain/models"
)

func (c *Client) GetWebhookConfigs(ctx context.Context) (*models.Response[[]models.WebhookConfig], error) {
	return send[[]models.WebhookConfig](ctx, c, call{method: http.MethodGet, route: "/webhook-configs", path: "/webhook-configs"})
}

func (c *Client) CreateWebhookConfig(ctx context.Context, req models.WebhookRequest) (*models.Response[models.WebhookConfig], error) {
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[models.WebhookConfig](ctx, c, call{method: http.MethodPost, route: "/webhook-configs", path: "/webhook-configs", body: req})
}

func (c *Client) UpdateWebhookConfig(ctx context.Context, id int64, req models.WebhookRequest) (*models.Response[models.WebhookConfig], error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[models.WebhookConfig](ctx, c, call{method: http.MethodPut, route: "/webhook-configs/:id", path: idPath("/webhook-configs", id, ""), body: req})
}

func (c *Client) DeleteWebhookConfig(ctx context.Context, id int64) (*models.Ack, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{method: http.MethodDelete, route: "/webhook-configs/:id", path: idPath("/webhook-configs", id, "")})
}

// TestWebhookConfig sends a test notification through the webhook.
func (c *Client) TestWebhookConfig(ctx context.Context, id int64) (*models.Ack, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{method: http.MethodPost, route: "/webhook-configs/:id/test", path: idPath("/webhook-configs", id, "/test")})
}

// ToggleWebhookConfig flips is_enabled.
func (c *Client) ToggleWebhookConfig(ctx context.Context, id int64) (*models.Response[models.WebhookConfig], error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[models.WebhookConfig](ctx, c, call{method: http.MethodPost, route: "/webhook-configs/:id/toggle", path: idPath("/webhook-configs", id, "/toggle")})
}
