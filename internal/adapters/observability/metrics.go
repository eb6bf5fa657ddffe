package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "cycles_total", Help: "Ingestion cycles by outcome."},
		[]string{"outcome"}, // outcome: ok|aborted
	)
	ReviewsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "reviews_fetched_total", Help: "Reviews fetched per source."},
		[]string{"source"},
	)
	ReviewsStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "reviews_stored_total", Help: "Insert attempts by result."},
		[]string{"source", "result"}, // result: inserted|duplicate
	)
	RecordsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "records_skipped_total", Help: "Malformed records dropped per source."},
		[]string{"source"},
	)
	AlertsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "alerts_emitted_total", Help: "Defect alerts emitted per source."},
		[]string{"source"},
	)
	SourceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "source_errors_total", Help: "Failed source fetches."},
		[]string{"source"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reviewpulse", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reviewpulse", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewpulse", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

// Serve starts a standalone /metrics listener exposing the pipeline
// collectors. Empty addr disables it.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(InitRegistry()))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		CyclesTotal, ReviewsFetched, ReviewsStored, RecordsSkipped,
		AlertsEmitted, SourceErrors,
		HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency,
		CacheEvents,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}
