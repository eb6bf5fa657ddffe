package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reviewpulse/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample so counters are non-zero
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ReviewsStored.WithLabelValues("brand", "inserted").Inc()

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	if !strings.Contains(out, "reviewpulse_http_requests_total") {
		t.Fatalf("expected reviewpulse_http_requests_total in output")
	}
	if !strings.Contains(out, "reviewpulse_reviews_stored_total") {
		t.Fatalf("expected reviewpulse_reviews_stored_total in output")
	}
}

// The monitor process scrapes through the standalone listener, so the
// pipeline counters it increments must be visible on the handler the
// listener mounts.
func TestPipelineCountersScrapeableFromServedHandler(t *testing.T) {
	observability.CyclesTotal.WithLabelValues("ok").Inc()
	observability.AlertsEmitted.WithLabelValues("brand").Inc()
	observability.ReviewsFetched.WithLabelValues("brand").Inc()
	observability.SourceErrors.WithLabelValues("brand").Inc()

	mh := observability.MetricsHandler(observability.InitRegistry())
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, metric := range []string{
		"reviewpulse_cycles_total",
		"reviewpulse_alerts_emitted_total",
		"reviewpulse_reviews_fetched_total",
		"reviewpulse_source_errors_total",
	} {
		if !strings.Contains(out, metric) {
			t.Fatalf("expected %s in served output", metric)
		}
	}
}
