package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEngineMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)

	m.ObserveOperation("reserve", "ok", time.Millisecond)
	m.ObserveOperation("reserve", "ok", time.Millisecond)
	m.ObserveOperation("reserve", "already_booked", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("reserve", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("reserve", "already_booked")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationLatency))
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var m *EngineMetrics
	m.ObserveOperation("cancel", "ok", time.Millisecond)
}
