package schedule

import (
	"testing"
	"time"

	"tutorroute/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromMetrics(reg)
	require.NoError(t, err)
	second, err := NewPromMetrics(reg)
	require.NoError(t, err)

	first.RecordOutcome(models.PlacementDropped)
	second.RecordOutcome(models.PlacementDropped)
	second.RecordLegFallback(models.ModeWalking)
	first.RecordRun(models.ModeWalking, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(first.outcomes.WithLabelValues(string(models.PlacementDropped))))
	assert.Equal(t, 1.0, testutil.ToFloat64(first.fallbacks.WithLabelValues(string(models.ModeWalking))))
	assert.Equal(t, 1, testutil.CollectAndCount(first.runs))
}
