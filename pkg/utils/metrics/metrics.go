package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "volunteer_portal"

// Collector is a prometheus.Collector for portal API traffic and
// volunteer state transitions.
type Collector struct {
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
	transitions     *prometheus.CounterVec
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "api_request_duration_seconds",
				Help:      "Duration of requests to the portal API.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			}, []string{"endpoint", "code"},
		),
		requestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "api_request_errors_total",
				Help:      "Requests to the portal API that failed or returned a non-2xx status.",
			}, []string{"endpoint"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "transitions_total",
				Help:      "Volunteer state transitions by kind and outcome.",
			}, []string{"kind", "outcome"},
		),
	}
}

// ObserveRequest records one API call. statusCode is 0 when no response arrived.
func (c *Collector) ObserveRequest(endpoint string, statusCode int, duration time.Duration, err error) {
	code := "none"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	c.requestDuration.WithLabelValues(endpoint, code).Observe(duration.Seconds())
	if err != nil {
		c.requestErrors.WithLabelValues(endpoint).Inc()
	}
}

// ObserveTransition records the outcome of a confirm, reject, rate or feedback attempt
func (c *Collector) ObserveTransition(kind, outcome string) {
	c.transitions.WithLabelValues(kind, outcome).Inc()
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.requestDuration.Describe(ch)
	c.requestErrors.Describe(ch)
	c.transitions.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.requestDuration.Collect(ch)
	c.requestErrors.Collect(ch)
	c.transitions.Collect(ch)
}
