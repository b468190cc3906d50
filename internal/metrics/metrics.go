// Package metrics holds the Prometheus collectors exported by the converter.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "currency_converter"

// Resolution outcomes recorded by RateResolutions.
const (
	OutcomeDirect   = "direct"
	OutcomeInverse  = "inverse"
	OutcomeSame     = "same_currency"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Outbound calls to the rates API, by endpoint and HTTP status ("error" on transport failure).
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	// How each rate resolution ended.
	RateResolutionsTotal *prometheus.CounterVec

	// Which source answered a currency catalogue lookup.
	CatalogueLookupsTotal *prometheus.CounterVec

	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry that also carries the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		ProviderRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Requests sent to the exchange rates API",
			},
			[]string{"endpoint", "status"},
		),
		ProviderRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Latency of exchange rates API requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		RateResolutionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_resolutions_total",
				Help:      "Conversion rate resolutions by outcome",
			},
			[]string{"outcome"},
		),
		CatalogueLookupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalogue_lookups_total",
				Help:      "Currency catalogue lookups by answering source",
			},
			[]string{"source"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Latency of HTTP requests served",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
	m.registry = reg
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveProviderRequest records one outbound API call. status is 0 for transport errors.
func (m *Metrics) ObserveProviderRequest(endpoint string, status int, took time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.ProviderRequestsTotal.WithLabelValues(endpoint, label).Inc()
	m.ProviderRequestDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

// ObserveResolution records the outcome of a rate resolution.
func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.RateResolutionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCatalogueLookup records which source served the currency list.
func (m *Metrics) ObserveCatalogueLookup(source string) {
	if m == nil {
		return
	}
	m.CatalogueLookupsTotal.WithLabelValues(source).Inc()
}

// ObserveHTTPRequest records a served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(took.Seconds())
}
