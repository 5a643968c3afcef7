package appmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

// NewCollector registers its metrics against the global default registry,
// so only one Collector may be constructed per test binary run - every
// assertion here shares the single instance built below.
func TestCollector(t *testing.T) {
	c := NewCollector()

	t.Run("records counters", func(t *testing.T) {
		c.RecordFileIngested()
		c.RecordFileIngested()
		c.RecordRowsIngested(42)
		c.RecordFetchError()

		assert.Equal(t, float64(2), counterValue(t, c.filesIngested))
		assert.Equal(t, float64(42), counterValue(t, c.rowsIngested))
		assert.Equal(t, float64(1), counterValue(t, c.fetchErrors))
	})

	t.Run("observes durations", func(t *testing.T) {
		c.ObserveBatchDuration(250 * time.Millisecond)
		c.ObserveFileLoadDuration(10 * time.Millisecond)

		var m dto.Metric
		require.NoError(t, c.batchDuration.Write(&m))
		assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
	})
}
