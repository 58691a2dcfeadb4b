// Package metric provides Prometheus instrumentation for the EchoPlayer core.
// It owns a private Prometheus registry, exposes the core lifecycle metrics,
// and lets services register their own collectors without name collisions.
package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mkdir700/EchoPlayer-sub001/errors"
)

// MetricsRegistry manages the registration and lifecycle of metrics
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	core               *Metrics
	registered         map[string]prometheus.Collector
	mu                 sync.Mutex
}

// NewMetricsRegistry creates a new metrics registry with core lifecycle metrics
func NewMetricsRegistry() *MetricsRegistry {
	registry := &MetricsRegistry{
		prometheusRegistry: prometheus.NewRegistry(),
		core:               NewMetrics(),
		registered:         make(map[string]prometheus.Collector),
	}

	registry.prometheusRegistry.MustRegister(
		registry.core.ServiceStatus,
		registry.core.InitializationDuration,
		registry.core.InitializationsTotal,
		registry.core.DisposalsTotal,
		registry.core.HealthCheckStatus,
		registry.core.HealthChecksTotal,
		registry.core.DictionaryLookups,
		registry.core.BridgeMessages,
		registry.core.BridgeConnections,
	)

	// Add Go runtime metrics
	registry.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the core lifecycle metrics
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.core
}

// RegisterCollector registers a service-specific collector. The
// serviceName/metricName pair must be unique across the registry.
func (r *MetricsRegistry) RegisterCollector(serviceName, metricName string, collector prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", serviceName, metricName)

	if _, exists := r.registered[key]; exists {
		return errors.WrapConfiguration(
			fmt.Errorf("metric %s already registered for service %s", metricName, serviceName),
			"MetricsRegistry", "RegisterCollector", "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapConfiguration(err, "MetricsRegistry", "RegisterCollector",
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.WrapInternal(err, "MetricsRegistry", "RegisterCollector",
			"prometheus registration")
	}

	r.registered[key] = collector
	return nil
}

// Unregister removes a previously registered service collector.
// Returns true if the collector existed and was removed.
func (r *MetricsRegistry) Unregister(serviceName, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", serviceName, metricName)
	collector, exists := r.registered[key]
	if !exists {
		return false
	}

	r.prometheusRegistry.Unregister(collector)
	delete(r.registered, key)
	return true
}
