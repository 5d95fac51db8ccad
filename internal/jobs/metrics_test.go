package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("fulfillment:packaging_plan").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("fulfillment:packaging_plan").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("fulfillment:packaging_plan", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("fulfillment:packaging_plan", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("fulfillment:packaging_plan")))
}

func TestAddExpiringDiscounts(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddExpiringDiscounts(7, 2)
	m.AddExpiringDiscounts(7, 0)
	require.Equal(t, 2.0, testutil.ToFloat64(m.expiring.WithLabelValues("7")))

	var nilMetrics *Metrics
	nilMetrics.AddExpiringDiscounts(7, 1)
	require.NoError(t, nilMetrics.Track("x").End(nil))
}
