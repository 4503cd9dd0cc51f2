package stock

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/entity"
	"github.com/drxagencia/dashboards/internal/messaging"
	"github.com/drxagencia/dashboards/internal/observability"
	stockrepo "github.com/drxagencia/dashboards/internal/repository/stock"
	"github.com/drxagencia/dashboards/internal/rules"
	orderservice "github.com/drxagencia/dashboards/internal/service/order"
	"github.com/drxagencia/dashboards/internal/store"
	"github.com/drxagencia/dashboards/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/drxagencia/dashboards/service/stock")

// Service manages menu item availability.
type Service struct {
	repo      *stockrepo.Repository
	writer    *store.Writer
	logger    *zap.Logger
	events    *messaging.Publisher
	enabled   bool
	producer  string
	metrics   *observability.Metrics
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *stockrepo.Repository
	Writer     *store.Writer
	Config     config.Config
	Logger     *zap.Logger
	Events     *messaging.Publisher
	Metrics    *observability.Metrics `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      p.Repository,
		writer:    p.Writer,
		logger:    logger,
		events:    p.Events,
		enabled:   p.Config.Messaging.Enabled,
		producer:  p.Config.Observability.ServiceName,
		metrics:   p.Metrics,
	}
}

// List returns the company's three menu collections.
func (s *Service) List(ctx context.Context, companyID string) (stockrepo.Menu, error) {
	menu, err := s.repo.List(ctx, companyID)
	if err != nil {
		return nil, orderservice.StoreError("failed to load menu", err)
	}
	return menu, nil
}

// Stream opens a subscription on the company's menu. The caller closes it.
func (s *Service) Stream(ctx context.Context, companyID string) (*store.Subscription, error) {
	sub, err := s.repo.Subscribe(ctx, companyID)
	if err != nil {
		return nil, orderservice.StoreError("failed to open menu stream", err)
	}
	return sub, nil
}

// View decodes one menu snapshot.
func (s *Service) View(ctx context.Context, snap store.Snapshot) stockrepo.Menu {
	s.metrics.Snapshot(ctx, "stock")
	return stockrepo.DecodeMenu(snap)
}

// Toggle flips an item's availability and returns the value written. An
// absent flag counts as available, so the first toggle disables the item.
func (s *Service) Toggle(ctx context.Context, companyID string, category entity.StockCategory, itemID string) (bool, error) {
	ctx, span := serviceTracer.Start(ctx, "StockService.Toggle", trace.WithAttributes(
		attribute.String("company.id", companyID),
		attribute.String("stock.category", string(category)),
		attribute.String("stock.item", itemID),
	))
	defer span.End()

	if !category.Valid() {
		return false, errorbank.BadRequest("unknown menu category", errorbank.WithDetail("category", string(category)))
	}

	item, err := s.repo.Get(ctx, companyID, category, itemID)
	if err != nil {
		if errors.Is(err, stockrepo.ErrNotFound) {
			return false, errorbank.NotFound("menu item not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return false, orderservice.StoreError("failed to load menu item", err)
	}

	next := rules.NextAvailability(item.Available)
	var published func()
	if env, ok := s.toggled(companyID, category, itemID, next); ok {
		published = func() { s.events.Enqueue(ctx, env) }
	}
	accepted := s.writer.SubmitThen("stock.toggle", store.StockItemPath(companyID, category, itemID), map[string]any{
		"disponivel": next,
	}, published)
	if !accepted {
		return false, errorbank.Unavailable("service is shutting down")
	}

	s.metrics.StockToggle(ctx, string(category), next)
	return next, nil
}

func (s *Service) toggled(companyID string, category entity.StockCategory, itemID string, available bool) (messaging.Envelope, bool) {
	if !s.enabled || s.events == nil {
		return messaging.Envelope{}, false
	}
	env, err := messaging.NewEnvelope(messaging.EventStockAvailabilityChanged, s.producer, companyID,
		messaging.StockAvailabilityChangedPayload{Category: string(category), ItemID: itemID, Available: available})
	if err != nil {
		s.logger.Error("build stock event", zap.Error(err))
		return messaging.Envelope{}, false
	}
	return env, true
}
