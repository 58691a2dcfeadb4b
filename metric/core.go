package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all core lifecycle metrics (not service-specific)
type Metrics struct {
	// Lifecycle metrics
	ServiceStatus          *prometheus.GaugeVec
	InitializationDuration *prometheus.HistogramVec
	InitializationsTotal   *prometheus.CounterVec
	DisposalsTotal         *prometheus.CounterVec

	// Health metrics
	HealthCheckStatus *prometheus.GaugeVec
	HealthChecksTotal *prometheus.CounterVec

	// Domain service metrics
	DictionaryLookups *prometheus.CounterVec
	BridgeMessages    *prometheus.CounterVec
	BridgeConnections prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all core metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "echoplayer",
				Subsystem: "service",
				Name:      "status",
				Help:      "Service lifecycle status (0=idle, 1=initializing, 2=ready, 3=error)",
			},
			[]string{"service"},
		),

		InitializationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "echoplayer",
				Subsystem: "service",
				Name:      "initialization_duration_seconds",
				Help:      "Service initialization duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service"},
		),

		InitializationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "echoplayer",
				Subsystem: "service",
				Name:      "initializations_total",
				Help:      "Total number of service initialization attempts",
			},
			[]string{"service", "result"},
		),

		DisposalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "echoplayer",
				Subsystem: "service",
				Name:      "disposals_total",
				Help:      "Total number of service disposal attempts",
			},
			[]string{"service", "result"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "echoplayer",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"service"},
		),

		HealthChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "echoplayer",
				Subsystem: "health",
				Name:      "checks_total",
				Help:      "Total number of health checks performed",
			},
			[]string{"service", "result"},
		),

		DictionaryLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "echoplayer",
				Subsystem: "dictionary",
				Name:      "lookups_total",
				Help:      "Total number of dictionary lookups",
			},
			[]string{"result"},
		),

		BridgeMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "echoplayer",
				Subsystem: "bridge",
				Name:      "messages_total",
				Help:      "Total number of IPC bridge messages",
			},
			[]string{"direction"},
		),

		BridgeConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "echoplayer",
				Subsystem: "bridge",
				Name:      "connections",
				Help:      "Number of active IPC bridge connections",
			},
		),
	}
}

// RecordServiceStatus records the current lifecycle status of a service
func (m *Metrics) RecordServiceStatus(service string, status int) {
	m.ServiceStatus.WithLabelValues(service).Set(float64(status))
}

// RecordInitialization records the outcome and duration of a service initialization
func (m *Metrics) RecordInitialization(service string, duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.InitializationsTotal.WithLabelValues(service, result).Inc()
	if success {
		m.InitializationDuration.WithLabelValues(service).Observe(duration.Seconds())
	}
}

// RecordDisposal records the outcome of a service disposal
func (m *Metrics) RecordDisposal(service string, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.DisposalsTotal.WithLabelValues(service, result).Inc()
}

// RecordHealthCheck records the outcome of a service health check
func (m *Metrics) RecordHealthCheck(service string, healthy bool) {
	value := 0.0
	result := "unhealthy"
	if healthy {
		value = 1.0
		result = "healthy"
	}
	m.HealthCheckStatus.WithLabelValues(service).Set(value)
	m.HealthChecksTotal.WithLabelValues(service, result).Inc()
}
