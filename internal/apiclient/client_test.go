package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"StockWatch/internal/domain/models"
	xhttp "StockWatch/pkg/http"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api", nil, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	if _, err := New("not a url", nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidatorRegistrationErrorIsSticky(t *testing.T) {
	calls := 0
	r := &registration{register: func() error {
		calls++
		return errors.New("duplicate tag")
	}}
	for i := 0; i < 3; i++ {
		if err := r.do(); err == nil {
			t.Fatalf("call %d: expected registration error", i)
		}
	}
	if calls != 1 {
		t.Fatalf("register ran %d times", calls)
	}

	ok := &registration{register: func() error { return nil }}
	if err := ok.do(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetWatchlistDecodesEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/watchlist" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"ts_code":"000001.SZ","name":"Ping An Bank"}]}`))
	})

	resp, err := c.GetWatchlist(context.Background())
	if err != nil {
		t.Fatalf("get watchlist: %v", err)
	}
	if !resp.Success || len(resp.Data) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Data[0].TSCode != "000001.SZ" || resp.Data[0].Name != "Ping An Bank" {
		t.Fatalf("item = %+v", resp.Data[0])
	}
}

func TestNotFoundUsesBackendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	})

	_, err := c.DeleteAlertRule(context.Background(), 99)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Message != "not found" || err.Error() != "not found" {
		t.Fatalf("message = %q", apiErr.Message)
	}
	if !apiErr.NotFound() {
		t.Fatalf("status = %d", apiErr.Status)
	}
}

func TestStatusWithoutMessageFallsBackToStatusLine(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`oops`))
	})

	_, err := c.GetAlertRules(context.Background())
	if err == nil || err.Error() != "HTTP 500: Internal Server Error" {
		t.Fatalf("err = %v", err)
	}
}

func TestNetworkFailureReportsUnderlyingError(t *testing.T) {
	boom := errors.New("connection refused")
	c, err := New("http://backend.invalid/api", nil, nil, xhttp.WithTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	})))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = c.GetWatchlist(context.Background())
	if err == nil || err.Error() != boom.Error() {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped sentinel")
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		t.Fatalf("status = %d", apiErr.Status)
	}
}

func TestValidationFailsWithoutRequest(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	_, err := c.AddToWatchlist(context.Background(), models.WatchlistAddRequest{TSCode: "AAPL"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.RemoveFromWatchlist(context.Background(), 0); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("backend was called %d times", hits.Load())
	}
}

func TestCreateAlertRuleSendsDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/rules" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["comparison_operator"] != "gt" || body["condition_type"] != "value" {
			t.Errorf("defaults not applied: %v", body)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":3,"rule_name":"drop","ts_code":"600000.SH"}}`))
	})

	resp, err := c.CreateAlertRule(context.Background(), models.AlertRuleRequest{
		RuleName:       "drop",
		TSCode:         "600000.SH",
		RuleType:       "price_change_pct",
		ThresholdValue: -5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Data.ID != 3 {
		t.Fatalf("id = %d", resp.Data.ID)
	}
}

func TestGetAlertRecordsDefaultLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q", got)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[],"total":0}`))
	})

	if _, err := c.GetAlertRecords(context.Background(), 0); err != nil {
		t.Fatalf("records: %v", err)
	}
}

func TestStockDailyDataPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stocks/000001.SZ/daily" || r.URL.Query().Get("limit") != "60" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[{"ts_code":"000001.SZ","trade_date":"20240102","close":9.39}]}`))
	})

	resp, err := c.GetStockDailyData(context.Background(), "000001.SZ", models.DailyQuery{})
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Close != 9.39 {
		t.Fatalf("data = %+v", resp.Data)
	}
}

func TestEndpointRoutes(t *testing.T) {
	var got atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Method + " " + r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	ctx := context.Background()
	rng := models.SyncRangeRequest{StartDate: "20240101", EndDate: "20240131"}

	tests := []struct {
		want string
		call func() error
	}{
		{"GET /api/datasources", func() error { _, err := c.GetDataSources(ctx); return err }},
		{"DELETE /api/datasources/3", func() error { _, err := c.DeleteDataSource(ctx, 3); return err }},
		{"POST /api/datasources/3/test", func() error { _, err := c.TestDataSourceConnection(ctx, 3); return err }},
		{"GET /api/datasources/active", func() error { _, err := c.GetActiveDataSource(ctx); return err }},
		{"POST /api/stocks/realtime", func() error { _, err := c.GetRealtimeQuotes(ctx, []string{"000001.SZ"}); return err }},
		{"POST /api/stocks/sync", func() error { _, err := c.SyncStockList(ctx, true); return err }},
		{"POST /api/stocks/600519.SH/daily/sync", func() error { _, err := c.SyncStockDailyData(ctx, "600519.SH", rng); return err }},
		{"POST /api/watchlist/5/sync", func() error { _, err := c.SyncWatchlistStock(ctx, 5, rng); return err }},
		{"POST /api/watchlist/sync-all", func() error { _, err := c.SyncAllWatchlist(ctx, models.SyncRangeRequest{}); return err }},
		{"GET /api/ai-configs", func() error { _, err := c.GetAIConfigs(ctx); return err }},
		{"DELETE /api/ai-configs/2", func() error { _, err := c.DeleteAIConfig(ctx, 2); return err }},
		{"POST /api/ai-configs/2/test", func() error { _, err := c.TestAIConfig(ctx, 2); return err }},
		{"GET /api/ai-configs/active", func() error { _, err := c.GetActiveAIConfig(ctx); return err }},
		{"POST /api/ai-configs/2/set-default", func() error { _, err := c.SetDefaultAIConfig(ctx, 2); return err }},
		{"POST /api/ai/stock-recommendation", func() error { _, err := c.GetStockRecommendation(ctx, "000001.SZ"); return err }},
		{"GET /api/webhook-configs", func() error { _, err := c.GetWebhookConfigs(ctx); return err }},
		{"DELETE /api/webhook-configs/4", func() error { _, err := c.DeleteWebhookConfig(ctx, 4); return err }},
		{"POST /api/webhook-configs/4/test", func() error { _, err := c.TestWebhookConfig(ctx, 4); return err }},
		{"POST /api/webhook-configs/4/toggle", func() error { _, err := c.ToggleWebhookConfig(ctx, 4); return err }},
	}
	for _, tt := range tests {
		got.Store("")
		if err := tt.call(); err != nil {
			t.Fatalf("%s: %v", tt.want, err)
		}
		if g := got.Load().(string); g != tt.want {
			t.Fatalf("got %q, want %q", g, tt.want)
		}
	}
}

func TestIDAndBodyChecksSendNothing(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	ctx := context.Background()

	errOf := func(_ any, err error) error { return err }
	checks := map[string]func() error{
		"zero id":        func() error { return errOf(c.DeleteWebhookConfig(ctx, 0)) },
		"negative id":    func() error { return errOf(c.SetDefaultAIConfig(ctx, -1)) },
		"no symbols":     func() error { return errOf(c.GetRealtimeQuotes(ctx, nil)) },
		"bad sync range": func() error { return errOf(c.SyncAllWatchlist(ctx, models.SyncRangeRequest{StartDate: "2024"})) },
		"empty code":     func() error { return errOf(c.GetStockRecommendation(ctx, "")) },
	}
	for name, fn := range checks {
		err := fn()
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%s: expected invalid request, got %v", name, err)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("%d requests reached the server", n)
	}
}
