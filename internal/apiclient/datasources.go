package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"StockWatch/internal/domain/models"
)

func (c *Client) GetDataSources(ctx context.Context) (*models.Response[[]models.DataSourceConfig], error) {
	return send[[]models.DataSourceConfig](ctx, c, call{method: http.MethodGet, route: "/datasources", path: "/datasources"})
}

func (c *Client) CreateDataSource(ctx context.Context, req models.DataSourceRequest) (*models.Response[models.DataSourceConfig], error) {
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[models.DataSourceConfig](ctx, c, call{method: http.MethodPost, route: "/datasources", path: "/datasources", body: req})
}

func (c *Client) UpdateDataSource(ctx context.Context, id int64, req models.DataSourceRequest) (*models.Response[models.DataSourceConfig], error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validate(ctx, &req); err != nil {
		return nil, err
	}
	return send[models.DataSourceConfig](ctx, c, call{method: http.MethodPut, route: "/datasources/:id", path: idPath("/datasources", id, ""), body: req})
}

func (c *Client) DeleteDataSource(ctx context.Context, id int64) (*models.Ack, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{method: http.MethodDelete, route: "/datasources/:id", path: idPath("/datasources", id, "")})
}

// TestDataSourceConnection asks the backend to check the provider connection.
func (c *Client) TestDataSourceConnection(ctx context.Context, id int64) (*models.Ack, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return send[json.RawMessage](ctx, c, call{method: http.MethodPost, route: "/datasources/:id/test", path: idPath("/datasources", id, "/test")})
}

func (c *Client) GetActiveDataSource(ctx context.Context) (*models.Response[models.DataSourceConfig], error) {
	return send[models.DataSourceConfig](ctx, c, call{method: http.MethodGet, route: "/datasources/active", path: "/datasources/active"})
}
