package stock

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/dto"
	"github.com/drxagencia/dashboards/internal/entity"
	"github.com/drxagencia/dashboards/internal/presentation/http/response"
	"github.com/drxagencia/dashboards/internal/presentation/http/stream"
	orderservice "github.com/drxagencia/dashboards/internal/service/order"
	service "github.com/drxagencia/dashboards/internal/service/stock"
	"github.com/drxagencia/dashboards/internal/transport/http/middleware"
	"github.com/drxagencia/dashboards/pkg/errorbank"
)

// Handler exposes menu availability over HTTP.
type Handler struct {
	svc       *service.Service
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewHandler constructs a stock Handler.
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger, keepAlive: stream.KeepAlive}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, guard *middleware.Guard) {
	g := e.Group("/stock", guard.Require)
	g.GET("", h.list)
	g.GET("/stream", h.stream)
	g.POST("/:category/:id/toggle", h.toggle)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	menu, err := h.svc.List(c.Request().Context(), middleware.Current(c).CompanyID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewMenuResponse(menu)).Build()
}

func (h *Handler) stream(c echo.Context) error {
	sess := middleware.Current(c)
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
					h.logger.Warn("stock stream ended", zap.String("company", sess.CompanyID), zap.Error(err))
					appErr := errorbank.From(orderservice.StoreError("stock stream ended", err))
					_ = w.Event("error", map[string]string{"kind": string(appErr.Kind()), "message": appErr.Message()})
				}
				return nil
			}
			if err := w.Event("stock", dto.NewMenuResponse(h.svc.View(ctx, snap))); err != nil {
				return nil
			}
		}
	}
}

func (h *Handler) toggle(c echo.Context) error {
	b := response.New(c)
	sess := middleware.Current(c)
	category := entity.StockCategory(c.Param("category"))
	id := c.Param("id")

	available, err := h.svc.Toggle(c.Request().Context(), sess.CompanyID, category, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusAccepted).WithData(dto.ToggleResponse{
		Category:  string(category),
		ID:        id,
		Available: available,
	}).Build()
}
