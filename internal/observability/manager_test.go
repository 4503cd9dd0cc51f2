package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drxagencia/dashboards/internal/config"
)

func TestManagerExposesDashboardCounters(t *testing.T) {
	mgr, err := newManager(context.Background(), config.Observability{
		ServiceName:     "painel",
		Environment:     "test",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	assert.True(t, mgr.MetricsEnabled())
	assert.False(t, mgr.TracingEnabled())
	require.NotNil(t, mgr.MetricsHandler())

	NewMetrics(mgr).OrderTransition(context.Background(), "preparo")

	rec := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "painel_order_transitions")
	assert.Contains(t, string(body), `status="preparo"`)
}

func TestManagersKeepSeparateRegistries(t *testing.T) {
	cfg := config.Observability{EnableMetrics: true, MetricsExporter: "prometheus"}
	first, err := newManager(context.Background(), cfg, nil)
	require.NoError(t, err)
	second, err := newManager(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.NotSame(t, first.registry, second.registry)
}

func TestManagerWithMetricsDisabled(t *testing.T) {
	mgr, err := newManager(context.Background(), config.Observability{}, nil)
	require.NoError(t, err)

	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
	require.NotNil(t, mgr.Metrics())
	assert.NotPanics(t, func() {
		mgr.Metrics().Login(context.Background(), "ok")
	})
	assert.NoError(t, mgr.Shutdown(context.Background()))
}
