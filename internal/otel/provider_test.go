package otel

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("x"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutSinks(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "flightcore"})
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestNew_LogWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{Enabled: true, ServiceName: "flightcore", LogWriter: &buf})
	require.NoError(t, err)

	assert.NotNil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("x"), "no metric reader configured")
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_ManualReaderCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	p, err := New(Config{Enabled: true, ServiceName: "flightcore", Reader: reader})
	require.NoError(t, err)
	t.Cleanup(func() { p.Shutdown(context.Background()) })

	assert.Nil(t, p.LoggerProvider())

	counter, err := p.Meter("test").Int64Counter("flight.ticks")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "flight.ticks", m.Name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func TestNew_MetricWriterFlushes(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{Enabled: true, ServiceName: "flightcore", MetricWriter: &buf})
	require.NoError(t, err)

	gauge, err := p.Meter("test").Float64Gauge("flight.thrust")
	require.NoError(t, err)
	gauge.Record(context.Background(), 0.42)

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "flight.thrust")
	assert.NoError(t, p.Shutdown(context.Background()))
}
