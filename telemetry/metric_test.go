package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/exp/event"
	"golang.org/x/exp/event/eventtest"
)

func TestNewMetricHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, err := NewMetricHandler(noop.NewMeterProvider().Meter("test"))
		require.NoError(t, err)
		assert.NotNil(t, handler)
	})

	t.Run("nil meter", func(t *testing.T) {
		handler, err := NewMetricHandler(nil)
		assert.ErrorIs(t, err, ErrNilMeter)
		assert.Nil(t, handler)
	})

	t.Run("nil event", func(t *testing.T) {
		var got error
		handler, err := NewMetricHandler(noop.NewMeterProvider().Meter("test"), WithErrorHandler(func(err error) {
			got = err
		}))
		require.NoError(t, err)

		ctx := context.Background()
		assert.Equal(t, ctx, handler.Event(ctx, nil))
		assert.Equal(t, ErrNilEvent, got)
	})
}

func TestMetricHandlerEvent(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	handler, err := NewMetricHandler(provider.Meter("test"))
	require.NoError(t, err)

	ctx := event.WithExporter(context.Background(), event.NewExporter(handler, eventtest.ExporterOptions()))

	opts := &event.MetricOptions{Namespace: "otel"}
	event.NewCounter("hits", opts).Record(ctx, 3, event.String("map", "a"))
	event.NewFloatGauge("size", opts).Record(ctx, 42, event.String("map", "a"))
	event.NewDuration("took", opts).Record(ctx, time.Millisecond, event.String("map", "a"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	got := make(map[string]metricdata.Aggregation)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		got[m.Name] = m.Data
	}

	is := assert.New(t)
	is.Len(got, 3)

	sum, ok := got["otel_hits"].(metricdata.Sum[int64])
	is.True(ok)
	if is.Len(sum.DataPoints, 1) {
		is.Equal(int64(3), sum.DataPoints[0].Value)
	}

	gauge, ok := got["otel_size"].(metricdata.Gauge[float64])
	is.True(ok)
	if is.Len(gauge.DataPoints, 1) {
		is.Equal(42.0, gauge.DataPoints[0].Value)
	}

	hist, ok := got["otel_took"].(metricdata.Histogram[int64])
	is.True(ok)
	if is.Len(hist.DataPoints, 1) {
		is.Equal(uint64(1), hist.DataPoints[0].Count)
	}
}

func TestMetricHandlerIgnoresLogs(t *testing.T) {
	handler, err := NewMetricHandler(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	e := &event.Event{Kind: event.LogKind}
	ctx := context.Background()
	assert.Equal(t, ctx, handler.Event(ctx, e))
}
