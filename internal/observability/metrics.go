package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/drxagencia/dashboards"

// Metrics holds the dashboard's counters. A nil *Metrics records nothing.
type Metrics struct {
	transitions metric.Int64Counter
	toggles     metric.Int64Counter
	snapshots   metric.Int64Counter
	logins      metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	transitions, err := meter.Int64Counter("painel.order.transitions",
		metric.WithDescription("Order status transitions requested by owners"))
	if err != nil {
		return nil, err
	}
	toggles, err := meter.Int64Counter("painel.stock.toggles",
		metric.WithDescription("Menu item availability toggles"))
	if err != nil {
		return nil, err
	}
	snapshots, err := meter.Int64Counter("painel.store.snapshots",
		metric.WithDescription("Store snapshots pushed to stream clients"))
	if err != nil {
		return nil, err
	}
	logins, err := meter.Int64Counter("painel.auth.logins",
		metric.WithDescription("Sign-in attempts by outcome"))
	if err != nil {
		return nil, err
	}
	return &Metrics{transitions: transitions, toggles: toggles, snapshots: snapshots, logins: logins}, nil
}

// OrderTransition counts a status write.
func (m *Metrics) OrderTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// StockToggle counts an availability write.
func (m *Metrics) StockToggle(ctx context.Context, category string, available bool) {
	if m == nil {
		return
	}
	m.toggles.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", category),
		attribute.Bool("available", available),
	))
}

// Snapshot counts a snapshot delivered on a stream.
func (m *Metrics) Snapshot(ctx context.Context, stream string) {
	if m == nil {
		return
	}
	m.snapshots.Add(ctx, 1, metric.WithAttributes(attribute.String("stream", stream)))
}

// Login counts a sign-in attempt.
func (m *Metrics) Login(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
