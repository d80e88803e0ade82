package metrics

import (
	"time"
)

// RecordModelOperation records a model-graph operation with its duration.
func (r *Registry) RecordModelOperation(operation, status string, duration time.Duration) {
	r.ModelOperationsTotal.WithLabelValues(operation, status).Inc()
	r.ModelOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHistoryReplay records an undo/redo replay attempt.
func (r *Registry) RecordHistoryReplay(operation, status string) {
	r.HistoryReplaysTotal.WithLabelValues(operation, status).Inc()
}

// UpdateEntityCounts updates the model entity gauges after a refresh.
func (r *Registry) UpdateEntityCounts(nodes, edges, dataObjects int) {
	r.ModelNodesTotal.Set(float64(nodes))
	r.ModelEdgesTotal.Set(float64(edges))
	r.ModelDataObjectsTotal.Set(float64(dataObjects))
}

// UpdateHistoryDepths updates the undo/redo stack depth gauges.
func (r *Registry) UpdateHistoryDepths(undo, redo int) {
	r.HistoryUndoDepth.Set(float64(undo))
	r.HistoryRedoDepth.Set(float64(redo))
}

// RecordHTTPRequest records an HTTP request with its duration.
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
