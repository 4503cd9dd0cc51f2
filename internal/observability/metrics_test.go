package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := newMetrics(provider.Meter(meterName))
	require.NoError(t, err)

	ctx := context.Background()
	m.OrderTransition(ctx, "preparo")
	m.OrderTransition(ctx, "preparo")
	m.StockToggle(ctx, "sabores", false)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	totals := map[string]int64{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		for _, dp := range sum.DataPoints {
			totals[metric.Name] += dp.Value
		}
	}
	assert.Equal(t, int64(2), totals["painel.order.transitions"])
	assert.Equal(t, int64(1), totals["painel.stock.toggles"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderTransition(context.Background(), "x")
		m.StockToggle(context.Background(), "x", true)
		m.Snapshot(context.Background(), "orders")
		m.Login(context.Background(), "ok")
	})
}
