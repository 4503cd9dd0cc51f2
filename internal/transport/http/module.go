package http

import (
	"go.uber.org/fx"

	"github.com/drxagencia/dashboards/internal/transport/http/finance"
	"github.com/drxagencia/dashboards/internal/transport/http/middleware"
	"github.com/drxagencia/dashboards/internal/transport/http/order"
	"github.com/drxagencia/dashboards/internal/transport/http/session"
	"github.com/drxagencia/dashboards/internal/transport/http/stock"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	fx.Provide(middleware.NewGuard),
	session.Module,
	order.Module,
	finance.Module,
	stock.Module,
)
