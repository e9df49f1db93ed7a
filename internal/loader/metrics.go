package loader

import "github.com/prometheus/client_golang/prometheus"

// Fetch outcomes recorded by Metrics.
const (
	OutcomeLoaded  = "loaded"
	OutcomeMissing = "missing"
	OutcomeFailed  = "failed"
)

// Metrics counts detail fetches by outcome and results discarded as stale.
type Metrics struct {
	fetchesTotal    *prometheus.CounterVec
	supersededTotal prometheus.Counter
	recordsTotal    prometheus.Counter
}

// NewMetrics creates the loader collectors and registers them when registerer is non-nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "evidencia",
				Subsystem: "loader",
				Name:      "fetches_total",
				Help:      "Detail fetches per contract, by outcome.",
			},
			[]string{"outcome"},
		),
		supersededTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "evidencia",
				Subsystem: "loader",
				Name:      "superseded_total",
				Help:      "Detail results discarded because a newer selection was issued.",
			},
		),
		recordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "evidencia",
				Subsystem: "loader",
				Name:      "records_total",
				Help:      "Detail records loaded.",
			},
		),
	}
	if registerer != nil {
		registerer.MustRegister(metrics.fetchesTotal, metrics.supersededTotal, metrics.recordsTotal)
	}
	return metrics
}

// FetchCount returns the collector for one outcome.
func (metrics *Metrics) FetchCount(outcome string) prometheus.Counter {
	return metrics.fetchesTotal.WithLabelValues(outcome)
}

// SupersededCount returns the stale-result collector.
func (metrics *Metrics) SupersededCount() prometheus.Counter {
	return metrics.supersededTotal
}

// RecordCount returns the loaded-records collector.
func (metrics *Metrics) RecordCount() prometheus.Counter {
	return metrics.recordsTotal
}

func (metrics *Metrics) observeFetch(outcome string, recordCount int) {
	if metrics == nil {
		return
	}
	metrics.fetchesTotal.WithLabelValues(outcome).Inc()
	metrics.recordsTotal.Add(float64(recordCount))
}

func (metrics *Metrics) observeSuperseded() {
	if metrics == nil {
		return
	}
	metrics.supersededTotal.Inc()
}
