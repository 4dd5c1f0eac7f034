package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ascetic_vault"

const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// notFound is implemented by errors that report a missing record.
type notFound interface {
	NotFound() bool
}

// Collector records repository operations and the backend requests behind
// them.
type Collector interface {
	ObserveOperation(operation, keyspace string, err error)
	ObserveQuery(keyspace string, elapsed time.Duration)
	// ObserveRequest takes status 0 when no response was received.
	ObserveRequest(method string, status int, elapsed time.Duration)
}

type PrometheusCollector struct {
	operations *prometheus.CounterVec
	queries    *prometheus.HistogramVec
	requests   *prometheus.HistogramVec
}

// NewPrometheusCollector registers the collector's vectors on reg.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	c := &PrometheusCollector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Key-value operations by outcome.",
		}, []string{"operation", "keyspace", "outcome"}),
		queries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of derived query execution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"keyspace"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Duration of HTTP requests to the secret store.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}
	for _, collector := range []prometheus.Collector{c.operations, c.queries, c.requests} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *PrometheusCollector) ObserveOperation(operation, keyspace string, err error) {
	c.operations.WithLabelValues(operation, keyspace, Outcome(err)).Inc()
}

func (c *PrometheusCollector) ObserveQuery(keyspace string, elapsed time.Duration) {
	c.queries.WithLabelValues(keyspace).Observe(elapsed.Seconds())
}

func (c *PrometheusCollector) ObserveRequest(method string, status int, elapsed time.Duration) {
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	c.requests.WithLabelValues(method, code).Observe(elapsed.Seconds())
}

// Outcome classifies err for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case isNotFound(err):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

func isNotFound(err error) bool {
	var nf notFound
	return errors.As(err, &nf) && nf.NotFound()
}

type nopCollector struct{}

func (nopCollector) ObserveOperation(string, string, error)    {}
func (nopCollector) ObserveQuery(string, time.Duration)        {}
func (nopCollector) ObserveRequest(string, int, time.Duration) {}

func NewNopCollector() Collector {
	return nopCollector{}
}

// NewRegistry returns a registry whose metrics carry a service label,
// optionally with the Go runtime and process collectors.
func NewRegistry(service string, defaultCollectors bool) (*prometheus.Registry, prometheus.Registerer) {
	registry := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, registry)
	if defaultCollectors {
		wrapped.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return registry, wrapped
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
