package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEngineMetrics() {
	r.ModelOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "secudo_model_operations_total",
			Help: "Total number of model-graph operations",
		},
		[]string{"operation", "status"},
	)

	r.ModelOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "secudo_model_operation_duration_seconds",
			Help:    "Model-graph operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	r.ModelNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "secudo_model_nodes_total",
			Help: "Total number of nodes in the model graph",
		},
	)

	r.ModelEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "secudo_model_edges_total",
			Help: "Total number of edges in the model graph",
		},
	)

	r.ModelDataObjectsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "secudo_model_data_objects_total",
			Help: "Total number of data objects in the model",
		},
	)

	r.HistoryUndoDepth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "secudo_history_undo_depth",
			Help: "Current depth of the undo stack",
		},
	)

	r.HistoryRedoDepth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "secudo_history_redo_depth",
			Help: "Current depth of the redo stack",
		},
	)

	r.HistoryReplaysTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "secudo_history_replays_total",
			Help: "Total number of undo/redo replays",
		},
		[]string{"operation", "status"},
	)
}
