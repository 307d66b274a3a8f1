package relay

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type relayMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func newRelayMetrics() *relayMetrics {
	m := &relayMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orbitsave_relay_requests_total",
			Help: "relay requests by route",
		}, []string{"route"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orbitsave_relay_failures_total",
			Help: "relay 5xx responses by route",
		}, []string{"route"}),
	}
	m.registry.MustRegister(m.requests, m.failures)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrumented wraps a handler with per-route request/failure counters.
func (s *Server) instrumented(route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.requests.WithLabelValues(route).Inc()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(rec, r)
		if rec.status >= http.StatusInternalServerError {
			s.metrics.failures.WithLabelValues(route).Inc()
		}
	}
}

// ServeMetrics serves this server's registry on the given port. Blocks.
func (s *Server) ServeMetrics(port string) error {
	promMux := http.NewServeMux()
	promMux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	return http.ListenAndServe(port, promMux)
}
