package app

import (
	"go.uber.org/fx"

	"github.com/drxagencia/dashboards/internal/auth"
	"github.com/drxagencia/dashboards/internal/cache"
	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/database"
	"github.com/drxagencia/dashboards/internal/logger"
	"github.com/drxagencia/dashboards/internal/messaging"
	"github.com/drxagencia/dashboards/internal/observability"
	repositorycompany "github.com/drxagencia/dashboards/internal/repository/company"
	repositoryorder "github.com/drxagencia/dashboards/internal/repository/order"
	repositorystock "github.com/drxagencia/dashboards/internal/repository/stock"
	grpcserver "github.com/drxagencia/dashboards/internal/server/grpc"
	httpserver "github.com/drxagencia/dashboards/internal/server/http"
	servicefinance "github.com/drxagencia/dashboards/internal/service/finance"
	serviceorder "github.com/drxagencia/dashboards/internal/service/order"
	servicesession "github.com/drxagencia/dashboards/internal/service/session"
	servicestock "github.com/drxagencia/dashboards/internal/service/stock"
	"github.com/drxagencia/dashboards/internal/store"
	transporthttp "github.com/drxagencia/dashboards/internal/transport/http"
	"github.com/drxagencia/dashboards/internal/worker"
	workerorder "github.com/drxagencia/dashboards/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	store.Module,
	auth.Module,
	repositorycompany.Module,
	repositoryorder.Module,
	repositorystock.Module,
	serviceorder.Module,
	servicestock.Module,
	servicefinance.Module,
	servicesession.Module,
)

// HTTP wires the HTTP transport and the gRPC health endpoint on top of the
// core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
