package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// ClinicMetrics exposes counters and histograms for the clinic API.
type ClinicMetrics struct {
	proceduresTotal *prometheus.CounterVec
	stockDecrements *prometheus.CounterVec
	identityLookups *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewClinicMetrics(reg prometheus.Registerer) *ClinicMetrics {
	m := &ClinicMetrics{
		proceduresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "procedures",
			Name:      "created_total",
			Help:      "Procedure creation attempts by mode and outcome",
		}, []string{"mode", "outcome"}),
		stockDecrements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "inventory",
			Name:      "stock_decrements_total",
			Help:      "Guarded material stock decrements by result",
		}, []string{"result"}),
		identityLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "identity",
			Name:      "cache_lookups_total",
			Help:      "Identity cache lookups by result",
		}, []string{"result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.proceduresTotal, m.stockDecrements, m.identityLookups, m.requestDuration)
	return m
}

func (m *ClinicMetrics) ObserveProcedure(mode, outcome string) {
	if m == nil {
		return
	}
	m.proceduresTotal.WithLabelValues(mode, outcome).Inc()
}

func (m *ClinicMetrics) ObserveStockDecrement(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "insufficient"
	}
	m.stockDecrements.WithLabelValues(result).Inc()
}

// ObserveIdentityLookup records a cache "hit", "miss" or "error".
func (m *ClinicMetrics) ObserveIdentityLookup(result string) {
	if m == nil {
		return
	}
	m.identityLookups.WithLabelValues(result).Inc()
}

func (m *ClinicMetrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
