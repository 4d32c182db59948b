package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	body := scrape(t, NewMetrics())
	if !strings.Contains(body, "stockreview_snapshot_products 0") {
		t.Fatalf("expected snapshot gauge, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/export.csv")

	req := httptest.NewRequest(http.MethodGet, "/export.csv", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `stockreview_http_requests_total{code="418",route="/export.csv"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `stockreview_http_request_duration_seconds_bucket{route="/export.csv"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestObserveReload(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveReload(42, time.Unix(1767254400, 0), nil)
	metrics.ObserveReload(0, time.Time{}, errors.New("offline"))
	metrics.ObserveReload(7, time.Unix(1767254400, 0), nil)

	body := scrape(t, metrics)
	for _, want := range []string{
		"stockreview_snapshot_products 7",
		`stockreview_snapshot_reloads_total{outcome="ok"} 2`,
		`stockreview_snapshot_reloads_total{outcome="error"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in: %s", want, body)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveReload(1, time.Now(), nil)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	if m.Middleware(next) == nil {
		t.Fatal("expected passthrough handler")
	}
}
