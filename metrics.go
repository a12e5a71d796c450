package actionclient

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector records Prometheus metrics for submitted requests,
// labeled by client, action, method and status code.  It is safe for
// concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec
}

// NewMetricsCollector creates a collector, registering its metrics with
// registry.  If registry is nil, prometheus.DefaultRegisterer is used.
//
// Registering two collectors with the same registry panics, as the metric
// names collide.
func NewMetricsCollector(registry prometheus.Registerer) *MetricsCollector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)
	return &MetricsCollector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actionclient_requests_total",
				Help: "Total number of submitted requests",
			},
			[]string{"client", "action", "method", "status_code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "actionclient_request_duration_seconds",
				Help:    "Duration of submitted requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"client", "action", "method", "status_code"},
		),
		requestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "actionclient_requests_in_flight",
				Help: "Number of submitted requests awaiting a response",
			},
			[]string{"client", "action"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actionclient_errors_total",
				Help: "Total number of submitted requests which returned an error",
			},
			[]string{"client", "action", "method"},
		),
	}
}

// Stage returns an inbound stage which records metrics for each request.
// Requests which fail without a response are recorded with status code
// "error".
func (m *MetricsCollector) Stage() Stage {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			inFlight := m.requestsInFlight.WithLabelValues(req.Client, req.Action)
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			resp, err := next.Handle(ctx, req)

			status := "error"
			if resp != nil {
				status = strconv.Itoa(resp.StatusCode)
			}
			m.requestsTotal.WithLabelValues(req.Client, req.Action, req.Method, status).Inc()
			m.requestDuration.WithLabelValues(req.Client, req.Action, req.Method, status).Observe(time.Since(start).Seconds())
			if err != nil {
				m.errorsTotal.WithLabelValues(req.Client, req.Action, req.Method).Inc()
			}
			return resp, err
		})
	}
}
