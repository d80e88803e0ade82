package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findFamily(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestRecordModelOperation(t *testing.T) {
	r := NewRegistry()
	r.RecordModelOperation("create_node", "success", 5*time.Millisecond)
	r.RecordModelOperation("create_node", "success", 2*time.Millisecond)
	r.RecordModelOperation("create_node", "error", time.Millisecond)

	families, err := r.Gather()
	require.NoError(t, err)

	counters := findFamily(t, families, "secudo_model_operations_total")
	require.NotNil(t, counters)

	var success, failed float64
	for _, m := range counters.Metric {
		status := ""
		for _, l := range m.Label {
			if l.GetName() == "status" {
				status = l.GetValue()
			}
		}
		switch status {
		case "success":
			success = m.GetCounter().GetValue()
		case "error":
			failed = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, success)
	assert.Equal(t, 1.0, failed)

	hist := findFamily(t, families, "secudo_model_operation_duration_seconds")
	require.NotNil(t, hist)
	assert.Equal(t, uint64(3), hist.Metric[0].GetHistogram().GetSampleCount())
}

func TestEntityAndHistoryGauges(t *testing.T) {
	r := NewRegistry()
	r.UpdateEntityCounts(12, 7, 4)
	r.UpdateHistoryDepths(3, 1)

	families, err := r.Gather()
	require.NoError(t, err)

	nodes := findFamily(t, families, "secudo_model_nodes_total")
	require.NotNil(t, nodes)
	assert.Equal(t, 12.0, nodes.Metric[0].GetGauge().GetValue())

	undo := findFamily(t, families, "secudo_history_undo_depth")
	require.NotNil(t, undo)
	assert.Equal(t, 3.0, undo.Metric[0].GetGauge().GetValue())
}

func TestIndependentRegistriesDoNotCollide(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()
	a.UpdateEntityCounts(5, 0, 0)
	b.UpdateEntityCounts(9, 0, 0)

	familiesA, err := a.Gather()
	require.NoError(t, err)
	nodesA := findFamily(t, familiesA, "secudo_model_nodes_total")
	assert.Equal(t, 5.0, nodesA.Metric[0].GetGauge().GetValue())
}
