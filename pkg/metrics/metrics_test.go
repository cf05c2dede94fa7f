package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrementPerProbe(t *testing.T) {
	DatagramsTotal.Reset()
	RecordsDecodedTotal.Reset()

	DatagramsTotal.WithLabelValues("probe-a").Inc()
	DatagramsTotal.WithLabelValues("probe-a").Inc()
	DatagramsTotal.WithLabelValues("probe-b").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(DatagramsTotal.WithLabelValues("probe-a")))
	assert.Equal(t, float64(1), testutil.ToFloat64(DatagramsTotal.WithLabelValues("probe-b")))
}

func TestDiagnosticsAndWriteErrorCounters(t *testing.T) {
	DiagnosticsTotal.Reset()
	SinkWriteErrorsTotal.Reset()
	RejectedByFilterTotal.Reset()

	DiagnosticsTotal.WithLabelValues("probe-a").Inc()
	SinkWriteErrorsTotal.WithLabelValues("probe-a").Inc()
	RejectedByFilterTotal.WithLabelValues("probe-a").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(DiagnosticsTotal.WithLabelValues("probe-a")))
	assert.Equal(t, float64(1), testutil.ToFloat64(SinkWriteErrorsTotal.WithLabelValues("probe-a")))
	assert.Equal(t, float64(1), testutil.ToFloat64(RejectedByFilterTotal.WithLabelValues("probe-a")))
}
