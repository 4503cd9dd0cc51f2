package order

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/dto"
	"github.com/drxagencia/dashboards/internal/entity"
	"github.com/drxagencia/dashboards/internal/presentation/http/request"
	"github.com/drxagencia/dashboards/internal/presentation/http/response"
	"github.com/drxagencia/dashboards/internal/presentation/http/stream"
	service "github.com/drxagencia/dashboards/internal/service/order"
	"github.com/drxagencia/dashboards/internal/transport/http/middleware"
	"github.com/drxagencia/dashboards/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/drxagencia/dashboards/transport/http/order")

// Handler exposes the order board over HTTP.
type Handler struct {
	svc       *service.Service
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger, keepAlive: stream.KeepAlive}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, guard *middleware.Guard) {
	g := e.Group("/orders", guard.Require)
	g.GET("", h.list)
	g.GET("/stream", h.stream)
	g.POST("/:id/status", h.transition)
}

func (h *Handler) date(c echo.Context) (entity.CivilDate, error) {
	raw := c.QueryParam("date")
	if raw == "" {
		return h.svc.Today(), nil
	}
	date, err := entity.ParseCivilDate(raw)
	if err != nil {
		return entity.CivilDate{}, errorbank.BadRequest("date must be YYYY-MM-DD", errorbank.WithCause(err))
	}
	return date, nil
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	sess := middleware.Current(c)

	date, err := h.date(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list", trace.WithAttributes(
		attribute.String("company.id", sess.CompanyID),
	))
	defer span.End()

	orders, err := h.svc.ListByDate(ctx, sess.CompanyID, date)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderList(orders)).WithMeta("date", date.String()).Build()
}

func (h *Handler) stream(c echo.Context) error {
	sess := middleware.Current(c)
	date, err := h.date(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}

	ctx := c.Request().Context()
	sub, err := h.svc.Stream(ctx, sess.CompanyID)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	defer sub.Close()

	w := stream.Open(c)
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Comment("keep-alive"); err != nil {
				return nil
			}
		case snap, ok := <-sub.Updates():
			if !ok {
				if err := sub.Err(); err != nil {
					h.logger.Warn("order stream ended", zap.String("company", sess.CompanyID), zap.Error(err))
					appErr := errorbank.From(service.StoreError("order stream ended", err))
					_ = w.Event("error", map[string]string{"kind": string(appErr.Kind()), "message": appErr.Message()})
				}
				return nil
			}
			orders := h.svc.View(ctx, snap, date)
			if err := w.Event("orders", dto.NewOrderList(orders)); err != nil {
				return nil
			}
		}
	}
}

func (h *Handler) transition(c echo.Context) error {
	b := response.New(c)
	sess := middleware.Current(c)
	id := c.Param("id")

	var payload dto.StatusRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.transition", trace.WithAttributes(
		attribute.String("company.id", sess.CompanyID),
		attribute.String("order.id", id),
	))
	defer span.End()

	status := entity.Status(payload.Status)
	if err := h.svc.Transition(ctx, sess.CompanyID, id, status); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusAccepted).WithData(map[string]string{"id": id, "status": string(status)}).Build()
}
