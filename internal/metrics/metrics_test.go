package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.Timer(StageDecompose)()
	m.Error(StageSynthesize)
	m.Error(StageSynthesize)
	m.SubQueries(3)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				byName[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				byName[f.GetName()] += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, 2.0, byName["finrag_query_errors_total"])
	assert.Equal(t, 1.0, byName["finrag_query_duration_seconds"])
	assert.Equal(t, 1.0, byName["finrag_sub_queries"])
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Timer(StageTotal)()
		m.Error(StageTotal)
		m.SubQueries(1)
	})
	assert.Nil(t, m.Registry())
}
