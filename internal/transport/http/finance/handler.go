package finance

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/dto"
	"github.com/drxagencia/dashboards/internal/entity"
	"github.com/drxagencia/dashboards/internal/presentation/http/response"
	"github.com/drxagencia/dashboards/internal/presentation/http/stream"
	service "github.com/drxagencia/dashboards/internal/service/finance"
	orderservice "github.com/drxagencia/dashboards/internal/service/order"
	"github.com/drxagencia/dashboards/internal/transport/http/middleware"
	"github.com/drxagencia/dashboards/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/drxagencia/dashboards/transport/http/finance")

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler exposes the monthly revenue summary over HTTP.
type Handler struct {
	svc       *service.Service
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewHandler constructs a finance Handler.
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger, keepAlive: stream.KeepAlive}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, guard *middleware.Guard) {
	g := e.Group("/finance", guard.Require)
	g.GET("", h.summary)
	g.GET("/stream", h.stream)
	g.GET("/export", h.export)
}

func (h *Handler) month(c echo.Context) (entity.YearMonth, error) {
	raw := c.QueryParam("month")
	if raw == "" {
		return h.svc.CurrentMonth(), nil
	}
	ym, err := entity.ParseYearMonth(raw)
	if err != nil {
		return entity.YearMonth{}, errorbank.BadRequest("month must be YYYY-MM", errorbank.WithCause(err))
	}
	return ym, nil
}

func (h *Handler) summary(c echo.Context) error {
	b := response.New(c)
	sess := middleware.Current(c)

	ym, err := h.month(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "finance.summary", trace.WithAttributes(
		attribute.String("company.id", sess.CompanyID),
		attribute.String("finance.month", ym.String()),
	))
	defer span.End()

	summary, err := h.svc.Summary(ctx, sess.CompanyID, ym)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewFinanceResponse(summary)).Build()
}

// stream pushes a fresh summary of the month every time the orders change.
func (h *Handler) stream(c echo.Context) error {
	sess := middleware.Current(c)
	ym, err := h.month(c)
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
					h.logger.Warn("finance stream ended", zap.String("company", sess.CompanyID), zap.Error(err))
					appErr := errorbank.From(orderservice.StoreError("finance stream ended", err))
					_ = w.Event("error", map[string]string{"kind": string(appErr.Kind()), "message": appErr.Message()})
				}
				return nil
			}
			summary := h.svc.View(ctx, sess.CompanyID, snap, ym)
			if err := w.Event("finance", dto.NewFinanceResponse(summary)); err != nil {
				return nil
			}
		}
	}
}

func (h *Handler) export(c echo.Context) error {
	sess := middleware.Current(c)

	ym, err := h.month(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "finance.export", trace.WithAttributes(
		attribute.String("company.id", sess.CompanyID),
		attribute.String("finance.month", ym.String()),
	))
	defer span.End()

	summary, err := h.svc.Summary(ctx, sess.CompanyID, ym)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	data, err := service.ExportXLSX(sess.CompanyName, summary)
	if err != nil {
		return response.New(c).WithError(errorbank.Internal("failed to build workbook", errorbank.WithCause(err))).Build()
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="financeiro-%s-%s.xlsx"`, sess.CompanyID, ym))
	return c.Blob(http.StatusOK, xlsxMIME, data)
}
