package stock

import (
	"context"
	"encoding/json"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/drxagencia/dashboards/internal/entity"
	"github.com/drxagencia/dashboards/internal/store"
)

var repoTracer = otel.Tracer("github.com/drxagencia/dashboards/repository/stock")

// ErrNotFound is returned when a menu item is missing.
var ErrNotFound = errors.New("stock item not found")

// Menu groups the toggleable items by category.
type Menu map[entity.StockCategory][]entity.StockItem

// Repository reads a company's menu collections from the store.
type Repository struct {
	store store.Store
}

// NewRepository wires a repository over the configured store.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// List returns the three menu collections in one read.
func (r *Repository) List(ctx context.Context, companyID string) (Menu, error) {
	ctx, span := repoTracer.Start(ctx, "StockRepository.List", trace.WithAttributes(attribute.String("company.id", companyID)))
	defer span.End()

	snap, err := r.store.Read(ctx, store.MenuPath(companyID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, err
	}
	return DecodeMenu(snap), nil
}

// Get fetches one item by key or array index.
func (r *Repository) Get(ctx context.Context, companyID string, category entity.StockCategory, itemID string) (entity.StockItem, error) {
	ctx, span := repoTracer.Start(ctx, "StockRepository.Get", trace.WithAttributes(
		attribute.String("company.id", companyID),
		attribute.String("stock.category", string(category)),
		attribute.String("stock.item", itemID),
	))
	defer span.End()

	snap, err := r.store.Read(ctx, store.StockItemPath(companyID, category, itemID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return entity.StockItem{}, err
	}
	if !snap.Exists() {
		return entity.StockItem{}, ErrNotFound
	}
	var item entity.StockItem
	if err := snap.Decode(&item); err != nil {
		return entity.StockItem{}, ErrNotFound
	}
	item.ID = itemID
	item.Category = category
	return item, nil
}

// Subscribe streams the company's whole menu.
func (r *Repository) Subscribe(ctx context.Context, companyID string) (*store.Subscription, error) {
	return r.store.Subscribe(ctx, store.MenuPath(companyID))
}

// DecodeMenu splits a menu snapshot into its categories. Each category may
// be stored as an array or as a keyed object.
func DecodeMenu(snap store.Snapshot) Menu {
	menu := make(Menu, len(entity.StockCategories))
	for _, category := range entity.StockCategories {
		menu[category] = DecodeItems(snap.Child(string(category)), category)
	}
	return menu
}

// DecodeItems decodes one category snapshot.
func DecodeItems(snap store.Snapshot, category entity.StockCategory) []entity.StockItem {
	children := snap.Children()
	items := make([]entity.StockItem, 0, len(children))
	for _, child := range children {
		var item entity.StockItem
		if err := json.Unmarshal(child.Value, &item); err != nil {
			continue
		}
		item.ID = child.Key
		item.Category = category
		items = append(items, item)
	}
	return items
}
