package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	applogger "StockWatch/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newEcho() *echo.Echo {
	l := applogger.Nop()
	e := echo.New()
	e.Use(Recover(l))
	e.Use(Metrics(l, time.Second))
	e.Use(RequestLogging(l))
	e.Use(CORS(CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet},
		AllowHeaders: []string{echo.HeaderContentType},
	}))
	e.GET("/items/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("id"))
	})
	e.GET("/panic", func(c echo.Context) error {
		panic("boom")
	})
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "gone")
	})
	return e
}

func TestMetricsUseRouteTemplate(t *testing.T) {
	e := newEcho()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/items/:id", http.MethodGet, "200"))

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != id {
			t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
		}
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/items/:id", http.MethodGet, "200"))
	if after-before != 3 {
		t.Fatalf("expected 3 requests recorded, got %v", after-before)
	}
}

func TestRecoverAnswers500(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandlerErrorsAreRecordedWithTheirStatus(t *testing.T) {
	e := newEcho()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/missing", http.MethodGet, "404"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/missing", http.MethodGet, "404")) - before; got != 1 {
		t.Fatalf("recorded %v", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newEcho()
	req := httptest.NewRequest(http.MethodOptions, "/items/1", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	e := echo.New()
	e.Use(CORS(CORSConfig{AllowOrigins: []string{"http://localhost:3000/"}}))
	e.GET("/items", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set(echo.HeaderOrigin, "http://evil.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Fatalf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
}
