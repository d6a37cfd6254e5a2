package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCount(t *testing.T) {
	m := NewMetrics()

	m.ObserveCheck(true, "override")
	m.ObserveCheck(false, "unmapped")
	m.ObserveCheck(false, "unmapped")
	m.CacheHit()
	m.CacheStale()
	m.ObserveRefresh(errors.New("down"), 0.01)
	m.BulkItem("failed")
	m.GuardBlocked()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.checks.WithLabelValues("allow", "override")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.checks.WithLabelValues("deny", "unmapped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookup.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bulkItems.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guardBlocks))
}

func TestNewMetricsIsolated(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}
