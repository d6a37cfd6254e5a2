package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks permission resolution and cache behaviour
type Metrics struct {
	Registry *prometheus.Registry

	checks      *prometheus.CounterVec
	cacheLookup *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	bulkItems   *prometheus.CounterVec
	guardBlocks prometheus.Counter
	refreshTime prometheus.Histogram
}

// NewMetrics registers every collector on a private registry so several
// instances can coexist in tests
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizsuite_permission_checks_total",
			Help: "Permission checks by result and deciding layer",
		}, []string{"result", "source"}),
		cacheLookup: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizsuite_layer_cache_lookups_total",
			Help: "Layer cache lookups by outcome (hit, stale, miss)",
		}, []string{"outcome"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizsuite_layer_refreshes_total",
			Help: "Layer loads from the permission store by status",
		}, []string{"status"}),
		bulkItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bizsuite_bulk_update_items_total",
			Help: "Bulk permission update items by outcome",
		}, []string{"outcome"}),
		guardBlocks: factory.NewCounter(prometheus.CounterOpts{
			Name: "bizsuite_hierarchy_guard_blocks_total",
			Help: "Permission disables refused by the hierarchy guard",
		}),
		refreshTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bizsuite_layer_refresh_seconds",
			Help:    "Time spent loading permission layers",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveCheck(allowed bool, source string) {
	result := "deny"
	if allowed {
		result = "allow"
	}
	m.checks.WithLabelValues(result, source).Inc()
}

func (m *Metrics) CacheHit()   { m.cacheLookup.WithLabelValues("hit").Inc() }
func (m *Metrics) CacheStale() { m.cacheLookup.WithLabelValues("stale").Inc() }
func (m *Metrics) CacheMiss()  { m.cacheLookup.WithLabelValues("miss").Inc() }

// ObserveRefresh records one layer load and its duration in seconds
func (m *Metrics) ObserveRefresh(err error, seconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.refreshes.WithLabelValues(status).Inc()
	m.refreshTime.Observe(seconds)
}

func (m *Metrics) BulkItem(outcome string) { m.bulkItems.WithLabelValues(outcome).Inc() }

func (m *Metrics) GuardBlocked() { m.guardBlocks.Inc() }
