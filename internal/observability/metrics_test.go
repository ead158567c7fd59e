package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

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

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/clients/{id}")

	req := httptest.NewRequest(http.MethodGet, "/api/clients/42", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `billdesk_http_requests_total{code="418",route="/api/clients/{id}"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `billdesk_http_request_duration_seconds_bucket{route="/api/clients/{id}"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestDomainCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveUpstream(http.MethodPatch, http.StatusOK)
	metrics.ObserveUpstream(http.MethodGet, 0)
	metrics.ObserveBudgetSync("success")
	metrics.ObserveBudgetMutations("assign", 3)
	metrics.ObserveBudgetMutations("delete", 0)
	metrics.ObserveJob("catalog:refresh", errors.New("boom"))

	body := scrape(t, metrics)
	for _, want := range []string{
		`billdesk_upstream_requests_total{code="200",method="PATCH"} 1`,
		`billdesk_upstream_requests_total{code="error",method="GET"} 1`,
		`billdesk_budget_sync_total{outcome="success"} 1`,
		`billdesk_budget_mutations_total{kind="assign"} 3`,
		`billdesk_jobs_total{outcome="failed",task="catalog:refresh"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in: %s", want, body)
		}
	}
	if strings.Contains(body, `kind="delete"`) {
		t.Fatalf("zero mutations must not create a series: %s", body)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveUpstream(http.MethodGet, 200)
	metrics.ObserveBudgetSync("failed")
	metrics.ObserveJob("invoice:render", nil)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}
