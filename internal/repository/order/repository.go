package order

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/drxagencia/dashboards/internal/entity"
	"github.com/drxagencia/dashboards/internal/store"
)

var repoTracer = otel.Tracer("github.com/drxagencia/dashboards/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository reads a company's orders from the store.
type Repository struct {
	store store.Store
}

// NewRepository wires a repository over the configured store.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// List returns every order of the company, newest id first.
func (r *Repository) List(ctx context.Context, companyID string) ([]entity.Order, error) {
	snap, err := r.Snapshot(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return DecodeOrders(snap), nil
}

// Snapshot reads the company's raw orders collection.
func (r *Repository) Snapshot(ctx context.Context, companyID string) (store.Snapshot, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Snapshot", trace.WithAttributes(attribute.String("company.id", companyID)))
	defer span.End()

	snap, err := r.store.Read(ctx, store.OrdersPath(companyID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return store.Snapshot{}, err
	}
	span.SetAttributes(attribute.Int("snapshot.bytes", len(snap.Value)))
	return snap, nil
}

// Get fetches a single order.
func (r *Repository) Get(ctx context.Context, companyID, orderID string) (entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Get", trace.WithAttributes(
		attribute.String("company.id", companyID),
		attribute.String("order.id", orderID),
	))
	defer span.End()

	snap, err := r.store.Read(ctx, store.OrderPath(companyID, orderID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return entity.Order{}, err
	}
	if !snap.Exists() {
		span.SetStatus(codes.Error, "not found")
		return entity.Order{}, ErrNotFound
	}
	var order entity.Order
	if err := snap.Decode(&order); err != nil {
		return entity.Order{}, ErrNotFound
	}
	order.ID = orderID
	return order, nil
}

// Subscribe streams the company's order collection.
func (r *Repository) Subscribe(ctx context.Context, companyID string) (*store.Subscription, error) {
	return r.store.Subscribe(ctx, store.OrdersPath(companyID))
}

// DecodeOrders turns an orders snapshot into entities sorted by id,
// descending. Records that are not objects are skipped.
func DecodeOrders(snap store.Snapshot) []entity.Order {
	children := snap.Children()
	orders := make([]entity.Order, 0, len(children))
	for _, child := range children {
		var order entity.Order
		if err := json.Unmarshal(child.Value, &order); err != nil {
			continue
		}
		order.ID = child.Key
		orders = append(orders, order)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].ID > orders[j].ID
	})
	return orders
}
