package order

import (
	"context"
	"errors"
	"strings"
	"time"

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
	repo "github.com/drxagencia/dashboards/internal/repository/order"
	"github.com/drxagencia/dashboards/internal/rules"
	"github.com/drxagencia/dashboards/internal/store"
	"github.com/drxagencia/dashboards/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/drxagencia/dashboards/service/order")

// Service exposes the owner's order board.
type Service struct {
	repo      *repo.Repository
	writer    *store.Writer
	logger    *zap.Logger
	events    *messaging.Publisher
	messaging messagingConfig
	metrics   *observability.Metrics
	location  *time.Location
	now       func() time.Time
}

type messagingConfig struct {
	enabled  bool
	producer string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Writer     *store.Writer
	Config     config.Config
	Logger     *zap.Logger
	Events     *messaging.Publisher
	Metrics    *observability.Metrics `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	loc := p.Config.App.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      p.Repository,
		writer:    p.Writer,
		logger:    logger,
		events:    p.Events,
		messaging: messagingConfig{
			enabled:  p.Config.Messaging.Enabled,
			producer: p.Config.Observability.ServiceName,
		},
		metrics:  p.Metrics,
		location: loc,
		now:      time.Now,
	}
}

// Today is the current civil date in the dashboard's time zone.
func (s *Service) Today() entity.CivilDate {
	return entity.DateOf(s.now().In(s.location))
}

// ListByDate returns the company's orders placed on date, newest id first.
func (s *Service) ListByDate(ctx context.Context, companyID string, date entity.CivilDate) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListByDate", trace.WithAttributes(
		attribute.String("company.id", companyID),
		attribute.String("order.date", date.String()),
	))
	defer span.End()

	orders, err := s.repo.List(ctx, companyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, StoreError("failed to load orders", err)
	}
	return rules.FilterByDate(orders, date), nil
}

// Stream opens a subscription on the company's orders. The caller owns the
// handle and must close it.
func (s *Service) Stream(ctx context.Context, companyID string) (*store.Subscription, error) {
	sub, err := s.repo.Subscribe(ctx, companyID)
	if err != nil {
		return nil, StoreError("failed to open order stream", err)
	}
	s.logger.Debug("order stream opened", zap.String("company", companyID))
	return sub, nil
}

// View derives the filtered list from one orders snapshot.
func (s *Service) View(ctx context.Context, snap store.Snapshot, date entity.CivilDate) []entity.Order {
	s.metrics.Snapshot(ctx, "orders")
	return rules.FilterByDate(repo.DecodeOrders(snap), date)
}

// Transition writes target into the order's status field. The write is
// unconditional and last write wins: the stored status is not compared
// with the board the owner acted on.
func (s *Service) Transition(ctx context.Context, companyID, orderID string, target entity.Status) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Transition", trace.WithAttributes(
		attribute.String("company.id", companyID),
		attribute.String("order.id", orderID),
		attribute.String("order.status", string(target)),
	))
	defer span.End()

	if strings.TrimSpace(orderID) == "" {
		return errorbank.BadRequest("order id is required")
	}
	if !rules.IsLifecycleStatus(target) {
		return errorbank.BadRequest("unknown order status", errorbank.WithDetail("status", string(target)))
	}

	fields := map[string]any{"status": string(target)}
	var published func()
	if env, ok := s.statusChanged(companyID, orderID, target); ok {
		published = func() { s.events.Enqueue(ctx, env) }
	}
	if !s.writer.SubmitThen("order.status", store.OrderPath(companyID, orderID), fields, published) {
		span.SetStatus(codes.Error, "writer closed")
		return errorbank.Unavailable("service is shutting down")
	}

	s.metrics.OrderTransition(ctx, string(target))
	return nil
}

// statusChanged builds the event announced once the write has landed, so
// consumers never observe the event before the new status.
func (s *Service) statusChanged(companyID, orderID string, target entity.Status) (messaging.Envelope, bool) {
	if !s.messaging.enabled || s.events == nil {
		return messaging.Envelope{}, false
	}
	env, err := messaging.NewEnvelope(messaging.EventOrderStatusChanged, s.messaging.producer, companyID,
		messaging.OrderStatusChangedPayload{OrderID: orderID, ToStatus: string(target)})
	if err != nil {
		s.logger.Error("build order status event", zap.Error(err))
		return messaging.Envelope{}, false
	}
	return env, true
}

// StoreError maps a store read failure onto an application error.
func StoreError(message string, err error) error {
	switch {
	case errors.Is(err, store.ErrPermissionDenied):
		return errorbank.Forbidden("access to this company's data was denied", errorbank.WithCause(err))
	case errors.Is(err, store.ErrClosed), errors.Is(err, context.DeadlineExceeded):
		return errorbank.Unavailable(message, errorbank.WithCause(err))
	default:
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
