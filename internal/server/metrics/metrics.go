// Package metrics exports pool activity to Prometheus. Collector implements
// pool.Observer so it can be handed straight to pool.WithObserver.
package metrics

import (
	"errors"
	"net/http"

	"pooledlist/internal/shared/pool"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the pool and session metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	constructed *prometheus.CounterVec // Instances built by the lifecycle
	reused      *prometheus.CounterVec // Gets served from a free list
	returned    *prometheus.CounterVec // Instances accepted back
	destroyed   *prometheus.CounterVec // Instances destroyed by trim or removal
	misuse      *prometheus.CounterVec // Rejected returns, by reason
	idle        *prometheus.GaugeVec   // Free list length
	checkedOut  *prometheus.GaugeVec   // Instances in use
	sessions    prometheus.Gauge       // Connected sessions
	trimmed     prometheus.Counter     // Instances removed by the trim policy
}

// NewCollector registers every metric under namespace on a fresh registry
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := []string{"type", "key"}

	return &Collector{
		registry: reg,
		constructed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "constructed_total",
			Help:      "Instances built by the construction source",
		}, labels),
		reused: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "reused_total",
			Help:      "Gets served from the free list",
		}, labels),
		returned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "returned_total",
			Help:      "Instances returned to the pool",
		}, labels),
		destroyed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "destroyed_total",
			Help:      "Idle instances destroyed",
		}, labels),
		misuse: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "misuse_total",
			Help:      "Returns rejected as foreign, mismatched or duplicate",
		}, append(labels, "reason")),
		idle: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "idle_instances",
			Help:      "Instances waiting in a free list",
		}, labels),
		checkedOut: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "checked_out_instances",
			Help:      "Instances handed out and not yet returned",
		}, labels),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Connected list view sessions",
		}),
		trimmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "trimmed_total",
			Help:      "Instances destroyed by the periodic trim",
		}),
	}
}

func (c *Collector) Constructed(typeName, key string) {
	c.constructed.WithLabelValues(typeName, key).Inc()
}

func (c *Collector) Reused(typeName, key string) {
	c.reused.WithLabelValues(typeName, key).Inc()
}

func (c *Collector) Returned(typeName, key string) {
	c.returned.WithLabelValues(typeName, key).Inc()
}

func (c *Collector) Destroyed(typeName, key string, count int) {
	c.destroyed.WithLabelValues(typeName, key).Add(float64(count))
}

func (c *Collector) Misuse(typeName, key string, err error) {
	c.misuse.WithLabelValues(typeName, key, reason(err)).Inc()
}

func reason(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, pool.ErrForeignInstance):
		return "foreign"
	case errors.Is(err, pool.ErrKeyMismatch):
		return "key_mismatch"
	case errors.Is(err, pool.ErrDoubleReturn):
		return "double_return"
	default:
		return "other"
	}
}

// ObserveStats refreshes the idle and checked out gauges from a registry snapshot
func (c *Collector) ObserveStats(stats []pool.TypeStats) {
	c.idle.Reset()
	c.checkedOut.Reset()
	for _, ts := range stats {
		for _, e := range ts.Entries {
			c.idle.WithLabelValues(ts.Type, e.Key).Set(float64(e.Free))
			c.checkedOut.WithLabelValues(ts.Type, e.Key).Set(float64(e.CheckedOut))
		}
	}
}

// Trimmed counts instances removed by the trim policy
func (c *Collector) Trimmed(n int) {
	c.trimmed.Add(float64(n))
}

// SessionOpened increments the session gauge
func (c *Collector) SessionOpened() {
	c.sessions.Inc()
}

// SessionClosed decrements the session gauge
func (c *Collector) SessionClosed() {
	c.sessions.Dec()
}

// Registry exposes the underlying registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
