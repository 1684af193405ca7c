// Package metrics exposes Prometheus collectors for inventory operations on a
// private registry, so tests can build as many as they like.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "homeinv"

// Result labels for Operations.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	Operations    *prometheus.CounterVec
	Areas         prometheus.Gauge
	Storages      prometheus.Gauge
	Items         prometheus.Gauge
	ImageFailures *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Inventory operations by name and result.",
		}, []string{"op", "result"}),
		Areas: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "areas",
			Help:      "Number of areas in the committed inventory.",
		}),
		Storages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storage_locations",
			Help:      "Number of storage locations in the committed inventory.",
		}),
		Items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items",
			Help:      "Number of items in the committed inventory.",
		}),
		ImageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_cleanup_failures_total",
			Help:      "Image deletions that failed after the inventory was updated.",
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		m.Operations,
		m.Areas,
		m.Storages,
		m.Items,
		m.ImageFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOp counts one finished operation.
func (m *Metrics) ObserveOp(op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.Operations.WithLabelValues(op, result).Inc()
}

// SetCounts records the size of the committed inventory.
func (m *Metrics) SetCounts(areas, storages, items int) {
	if m == nil {
		return
	}
	m.Areas.Set(float64(areas))
	m.Storages.Set(float64(storages))
	m.Items.Set(float64(items))
}

func (m *Metrics) ImageCleanupFailed(op string) {
	if m == nil {
		return
	}
	m.ImageFailures.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests that gather directly.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
