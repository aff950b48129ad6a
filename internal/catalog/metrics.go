package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

type FetchMetrics struct {
	Fetches  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Products *prometheus.GaugeVec
}

func NewFetchMetrics(reg prometheus.Registerer) *FetchMetrics {
	m := &FetchMetrics{
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "encarte",
				Name:      "product_fetch_total",
				Help:      "Product source reads by result",
			},
			[]string{"source", "result"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "encarte",
				Name:      "product_fetch_duration_seconds",
				Help:      "Product source read latency",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),
		Products: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "encarte",
				Name:      "products",
				Help:      "Products in the last successful fetch",
			},
			[]string{"source"},
		),
	}
	reg.MustRegister(m.Fetches, m.Duration, m.Products)
	return m
}

func (m *FetchMetrics) observe(kind SourceKind, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	m.Fetches.WithLabelValues(string(kind), result).Inc()
	m.Duration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func (m *FetchMetrics) setCount(kind SourceKind, n int) {
	if m == nil {
		return
	}
	m.Products.WithLabelValues(string(kind)).Set(float64(n))
}
