package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/milk9111/flightrig/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewDisabled(t *testing.T) {
	p, err := New(Config{Exporter: config.MetricsNone})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewUnknownExporter(t *testing.T) {
	_, err := New(Config{Exporter: "otlp"})
	assert.Error(t, err)
}

func TestManualReaderCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	p, err := New(Config{}, reader)
	require.NoError(t, err)
	require.True(t, p.Enabled())
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	counter, err := p.Meter("test").Int64Counter("frames")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func TestStdoutExportsOnShutdown(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{Exporter: config.MetricsStdout, Interval: time.Hour, Writer: &buf})
	require.NoError(t, err)

	counter, err := p.Meter("test").Int64Counter("rig.rebuilds")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "rig.rebuilds")
	assert.Contains(t, buf.String(), serviceName)
}
