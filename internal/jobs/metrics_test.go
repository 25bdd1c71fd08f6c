package jobmetrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerCountsOutcomes(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, metrics.Track("logins_prune").End(nil))
	boom := errors.New("boom")
	assert.Same(t, boom, metrics.Track("logins_prune").End(boom))
	dropped := fmt.Errorf("bad payload: %w", asynq.SkipRetry)
	assert.Same(t, dropped, metrics.Track("logins_prune").End(dropped))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("logins_prune", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("logins_prune", StatusFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("logins_prune", StatusDropped)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.failures.WithLabelValues("logins_prune")))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusSuccess, Status(nil))
	assert.Equal(t, StatusFailure, Status(errors.New("x")))
	assert.Equal(t, StatusDropped, Status(asynq.SkipRetry))
}

func TestNilMetricsTrackerIsNoop(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.Same(t, boom, m.Track("x").End(boom))
}

func TestDefaultRegistererIsShared(t *testing.T) {
	assert.Same(t, NewMetrics(nil), NewMetrics(nil))
}
