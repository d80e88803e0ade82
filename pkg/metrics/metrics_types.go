package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Registry bundles all engine and server metrics behind one dedicated
// prometheus registry so independent engine instances never collide.
type Registry struct {
	registry *prometheus.Registry

	// Engine metrics
	ModelOperationsTotal   *prometheus.CounterVec
	ModelOperationDuration *prometheus.HistogramVec
	ModelNodesTotal        prometheus.Gauge
	ModelEdgesTotal        prometheus.Gauge
	ModelDataObjectsTotal  prometheus.Gauge
	HistoryUndoDepth       prometheus.Gauge
	HistoryRedoDepth       prometheus.Gauge
	HistoryReplaysTotal    *prometheus.CounterVec

	// HTTP metrics (reference server)
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with all metrics registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initEngineMetrics()
	r.initHTTPMetrics()
	return r
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gather collects the current metric families (used by tests).
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}
