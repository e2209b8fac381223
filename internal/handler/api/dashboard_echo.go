package api

import (
	"context"
	"errors"

	"StockWatch/internal/apiclient"
	"StockWatch/internal/domain/models"
	domrepo "StockWatch/internal/domain/repository"
	xhttp "StockWatch/pkg/http"
	xlogger "StockWatch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Realtime is the slice of the realtime client the dashboard drives.
type Realtime interface {
	Status() models.ConnectionStatus
	IsConnected() bool
	Subscribe(topic string, params map[string]any) error
	Unsubscribe(topic string, params map[string]any) error
}

// Backend is the slice of the REST client the dashboard proxies.
type Backend interface {
	GetWatchlist(ctx context.Context) (*models.Response[[]models.WatchlistItem], error)
	GetAlertRules(ctx context.Context) (*models.Response[[]models.AlertRule], error)
	CreateAlertRule(ctx context.Context, req models.AlertRuleRequest) (*models.Response[models.AlertRule], error)
	DeleteAlertRule(ctx context.Context, id int64) (*models.Ack, error)
	GetAlertRecords(ctx context.Context, limit int) (*models.Response[[]models.AlertRecord], error)
}

// DashboardHandler serves the local dashboard: pushed state from the
// snapshot store plus a thin proxy to the backend.
type DashboardHandler struct {
	logger   *xlogger.Logger
	realtime Realtime
	store    domrepo.SnapshotStore
	backend  Backend
}

func NewDashboardHandler(logger *xlogger.Logger, rt Realtime, store domrepo.SnapshotStore, backend Backend) *DashboardHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &DashboardHandler{logger: logger, realtime: rt, store: store, backend: backend}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/market/:symbol", h.Market)
	g.GET("/live-alerts", h.LiveAlerts)
	g.POST("/subscriptions", h.Subscribe)
	g.DELETE("/subscriptions", h.Unsubscribe)

	g.GET("/watchlist", h.Watchlist)
	g.GET("/rules", h.Rules)
	g.POST("/rules", h.CreateRule)
	g.DELETE("/rules/:id", h.DeleteRule)
	g.GET("/alerts", h.Alerts)
}

func (h *DashboardHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.realtime.Status())
}

func (h *DashboardHandler) Market(c echo.Context) error {
	req := &models.SymbolParam{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, err := h.store.MarketData(c.Request().Context(), req.Symbol)
	if errors.Is(err, domrepo.ErrNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no market data for %s", req.Symbol))
	}
	if err != nil {
		h.logger.Error("market snapshot error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, snap)
}

func (h *DashboardHandler) LiveAlerts(c echo.Context) error {
	req := &models.LimitQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	alerts, err := h.store.RecentAlerts(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("recent alerts error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.ListResponse(c, alerts, int64(len(alerts)))
}

func (h *DashboardHandler) Subscribe(c echo.Context) error {
	return h.subscription(c, h.realtime.Subscribe)
}

func (h *DashboardHandler) Unsubscribe(c echo.Context) error {
	return h.subscription(c, h.realtime.Unsubscribe)
}

func (h *DashboardHandler) subscription(c echo.Context, send func(string, map[string]any) error) error {
	req := &models.SubscriptionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// a disconnected client drops the request silently, so report it here
	connected := h.realtime.IsConnected()
	if err := send(req.Topic, req.Params); err != nil {
		h.logger.Error("subscription request failed", xlogger.String("topic", req.Topic), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError(err.Error()))
	}
	return xhttp.SuccessResponse(c, models.SubscriptionResult{Topic: req.Topic, Sent: connected})
}

func (h *DashboardHandler) Watchlist(c echo.Context) error {
	resp, err := h.backend.GetWatchlist(c.Request().Context())
	if err != nil {
		return h.upstream(c, "watchlist", err)
	}
	return xhttp.ListResponse(c, resp.Data, int64(len(resp.Data)))
}

func (h *DashboardHandler) Rules(c echo.Context) error {
	resp, err := h.backend.GetAlertRules(c.Request().Context())
	if err != nil {
		return h.upstream(c, "rules", err)
	}
	return xhttp.ListResponse(c, resp.Data, int64(len(resp.Data)))
}

func (h *DashboardHandler) CreateRule(c echo.Context) error {
	req := &models.AlertRuleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	resp, err := h.backend.CreateAlertRule(c.Request().Context(), *req)
	if err != nil {
		return h.upstream(c, "create rule", err)
	}
	return xhttp.CreatedResponse(c, resp.Data)
}

func (h *DashboardHandler) DeleteRule(c echo.Context) error {
	req := &models.RuleIDParam{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if _, err := h.backend.DeleteAlertRule(c.Request().Context(), req.ID); err != nil {
		return h.upstream(c, "delete rule", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *DashboardHandler) Alerts(c echo.Context) error {
	req := &models.LimitQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	resp, err := h.backend.GetAlertRecords(c.Request().Context(), req.Limit)
	if err != nil {
		return h.upstream(c, "alerts", err)
	}
	total := int64(resp.Total)
	if total == 0 {
		total = int64(len(resp.Data))
	}
	return xhttp.ListResponse(c, resp.Data, total)
}

func (h *DashboardHandler) upstream(c echo.Context, op string, err error) error {
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		h.logger.Error("backend call failed", xlogger.String("op", op), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError(err.Error()))
	}
	if errors.Is(apiErr, apiclient.ErrInvalidRequest) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(apiErr.Message))
	}
	h.logger.Warn("backend call failed",
		xlogger.String("op", op),
		xlogger.Int("status", apiErr.Status),
		xlogger.String("message", apiErr.Message),
	)
	return xhttp.AppErrorResponse(c, xhttp.UpstreamError(apiErr.Status, apiErr.Message).WithError(err))
}
