package order

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/messaging"
	"github.com/drxagencia/dashboards/internal/service/finance"
	"github.com/drxagencia/dashboards/internal/worker"
)

var workerTracer = otel.Tracer("github.com/drxagencia/dashboards/worker/order")

// Refresher recomputes a company's derived views from the store.
type Refresher interface {
	Refresh(ctx context.Context, companyID string) error
}

// Module registers dashboard event handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		func(svc *finance.Service) Refresher { return svc },
		NewEventHandler,
	),
	fx.Provide(
		fx.Annotate(
			NewRegistration,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// EventHandler reacts to events the dashboard publishes.
type EventHandler struct {
	finance Refresher
	logger  *zap.Logger
}

// NewEventHandler builds the handler. r is usually the finance service,
// whose current month summary is warmed after every status change.
func NewEventHandler(r Refresher, logger *zap.Logger) *EventHandler {
	return &EventHandler{finance: r, logger: logger}
}

// NewRegistration binds the handler to the events topic.
func NewRegistration(h *EventHandler, cfg config.Config) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: h.Handle,
	}
}

// Handle processes one envelope. Undecodable messages are dropped so they
// do not block the partition.
func (h *EventHandler) Handle(ctx context.Context, msg messaging.Message) error {
	ctx, span := workerTracer.Start(ctx, "worker.events.process", trace.WithAttributes(
		attribute.String("messaging.topic", msg.Topic),
		attribute.Int64("messaging.offset", msg.Offset),
	))
	defer span.End()

	env, err := messaging.DecodeEnvelope(msg)
	if err != nil {
		h.logger.Error("dropping undecodable event", zap.Int64("offset", msg.Offset), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode error")
		return nil
	}
	span.SetAttributes(
		attribute.String("event.type", env.EventType),
		attribute.String("company.id", env.CompanyID),
	)

	switch env.EventType {
	case messaging.EventOrderStatusChanged:
		payload, err := messaging.DecodePayload[messaging.OrderStatusChangedPayload](env)
		if err != nil {
			h.logger.Error("dropping malformed status event", zap.String("event_id", env.EventID), zap.Error(err))
			return nil
		}
		if err := h.finance.Refresh(ctx, env.CompanyID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "refresh failed")
			return err
		}
		h.logger.Info("order status changed",
			zap.String("company", env.CompanyID),
			zap.String("order", payload.OrderID),
			zap.String("status", payload.ToStatus),
		)
	case messaging.EventStockAvailabilityChanged:
		payload, err := messaging.DecodePayload[messaging.StockAvailabilityChangedPayload](env)
		if err != nil {
			h.logger.Error("dropping malformed stock event", zap.String("event_id", env.EventID), zap.Error(err))
			return nil
		}
		h.logger.Info("stock availability changed",
			zap.String("company", env.CompanyID),
			zap.String("category", payload.Category),
			zap.String("item", payload.ItemID),
			zap.Bool("available", payload.Available),
		)
	default:
		h.logger.Debug("ignoring event", zap.String("type", env.EventType))
	}
	return nil
}
