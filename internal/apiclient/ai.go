package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"StockWatch/internal/domain/models"
)

func (c *Client) GetAIConfigs(ctx context.Context) (*models.Response[[]models.AIConfig], error) {
	return send[[]models.AIConfig](ctx, c, call{method: http.MethodGet, route: "/ai-configs", path: "/ai-configs"})
}

func (c *Client) CreateAIConfig(ctx context.Context, req models.AIConfigRequest) (*models.Response[models.AIConfig], error) {
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[models.AIConfig](ctx, c, call{method: http.MethodPost, route: "/ai-configs", path: "/ai-configs", body: req})
}

func (c *Client) UpdateAIConfig(ctx context.Context, id int64, req models.AIConfigRequest) (*models.Response[models.AIConfig], error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[models.AIConfig](ctx, c, call{method: http.MethodPut, route: "/ai-configs/:id", path: idPath("/ai-configs", id, ""), body: req})
}

func (c *Client) DeleteAIConfig(ctx context.Context, id int64) (*models.Ack, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{method: http.MethodDelete, route: "/ai-configs/:id", path: idPath("/ai-configs", id, "")})
}

func (c *Client) TestAIConfig(ctx context.Context, id int64) (*models.Ack, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{method: http.MethodPost, route: "/ai-configs/:id/test", path: idPath("/ai-configs", id, "/test")})
}

func (c *Client) GetActiveAIConfig(ctx context.Context) (*models.Response[models.AIConfig], error) {
	return send[models.AIConfig](ctx, c, call{method: http.MethodGet, route: "/ai-configs/active", path: "/ai-configs/active"})
}

func (c *Client) SetDefaultAIConfig(ctx context.Context, id int64) (*models.Ack, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{method: http.MethodPost, route: "/ai-configs/:id/set-default", path: idPath("/ai-configs", id, "/set-default")})
}

// GetStockRecommendation runs the backend's AI analysis for one stock. It can
// take as long as the provider's timeout; bound it with ctx.
func (c *Client) GetStockRecommendation(ctx context.Context, tsCode string) (*models.Response[models.AIRecommendation], error) {
	req := models.RecommendationRequest{TSCode: tsCode}
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[models.AIRecommendation](ctx, c, call{method: http.MethodPost, route: "/ai/stock-recommendation", path: "/ai/stock-recommendation", body: req})
}
