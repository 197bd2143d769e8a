package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for a mining job
type Registry struct {
	// Job Metrics
	FactRowsTotal      prometheus.Gauge
	FactRowsDropped    prometheus.Gauge
	JobDuration        prometheus.Gauge
	JobLastSuccessTime prometheus.Gauge

	// Facet Metrics
	FacetRunsTotal    *prometheus.CounterVec
	FacetDuration     *prometheus.HistogramVec
	FacetTransactions *prometheus.GaugeVec
	FacetAlphabetSize *prometheus.GaugeVec
	FacetItemsets     *prometheus.GaugeVec
	FacetRules        *prometheus.GaugeVec

	// Miner Metrics
	CandidatesTotal *prometheus.CounterVec
	MiningLevels    *prometheus.GaugeVec

	// Sequence Metrics
	TransitionPairs  prometheus.Gauge
	TransitionsTotal prometheus.Gauge

	// Export Metrics
	TablesExportedTotal *prometheus.CounterVec
	TableRows           *prometheus.GaugeVec

	// System Metrics
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initJobMetrics()
	r.initFacetMetrics()
	r.initExportMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
