package stock

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/drxagencia/dashboards/internal/transport/http/middleware"
)

// Module wires HTTP stock handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, guard *middleware.Guard) {
		Register(e, h, guard)
	}),
)
