package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	require.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.CoreMetrics())
}

func TestRegisterCollector(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_lookups_total",
		Help: "test counter",
	})

	err := registry.RegisterCollector("dictionary", "lookups", counter)
	require.NoError(t, err)

	// Duplicate key is a configuration error
	err = registry.RegisterCollector("dictionary", "lookups", counter)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestUnregister(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_items",
		Help: "test gauge",
	})

	require.NoError(t, registry.RegisterCollector("storage", "items", gauge))
	assert.True(t, registry.Unregister("storage", "items"))
	assert.False(t, registry.Unregister("storage", "items"))

	// Re-registration after unregister succeeds
	require.NoError(t, registry.RegisterCollector("storage", "items", gauge))
}

func TestRecordServiceStatus(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.RecordServiceStatus("storage", 2)

	value := testutil.ToFloat64(core.ServiceStatus.WithLabelValues("storage"))
	assert.Equal(t, 2.0, value)
}

func TestRecordInitialization(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.RecordInitialization("dictionary", 50*time.Millisecond, true)
	core.RecordInitialization("dictionary", 0, false)

	success := testutil.ToFloat64(core.InitializationsTotal.WithLabelValues("dictionary", "success"))
	failed := testutil.ToFloat64(core.InitializationsTotal.WithLabelValues("dictionary", "error"))
	assert.Equal(t, 1.0, success)
	assert.Equal(t, 1.0, failed)
}

func TestRecordHealthCheck(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.RecordHealthCheck("bridge", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(core.HealthCheckStatus.WithLabelValues("bridge")))

	core.RecordHealthCheck("bridge", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(core.HealthCheckStatus.WithLabelValues("bridge")))
}

func TestRecordDisposal(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.RecordDisposal("storage", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(core.DisposalsTotal.WithLabelValues("storage", "success")))
}
