package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelbook", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hotelbook", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	StoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelbook", Name: "store_ops_total", Help: "Repository operations."},
		[]string{"entity", "op", "result"}, // result: ok|error|invalid|not_found
	)
	IdentityEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelbook", Name: "identity_events_total", Help: "Identity cache hits/misses/evictions."},
		[]string{"entity", "event"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelbook", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, StoreOps, IdentityEvents, CacheEvents)
}

// Serve exposes the default registry on addr in the background. An empty
// addr disables the listener.
func Serve(addr string) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

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

// InitRegistry builds a private registry carrying the hotelbook collectors,
// for handlers that should not expose the Go runtime metrics.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, StoreOps, IdentityEvents, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveStore(entity, op, result string) {
	StoreOps.WithLabelValues(entity, op, result).Inc()
}

func ObserveIdentity(entity, event string) { // event: hit|miss|evict
	IdentityEvents.WithLabelValues(entity, event).Inc()
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}
