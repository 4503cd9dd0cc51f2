// Package transporttest builds a signed-in HTTP fixture over in-process
// drivers for handler tests.
package transporttest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/auth"
	"github.com/drxagencia/dashboards/internal/cache"
	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/messaging"
	companyrepo "github.com/drxagencia/dashboards/internal/repository/company"
	"github.com/drxagencia/dashboards/internal/presentation/http/request"
	"github.com/drxagencia/dashboards/internal/service/session"
	"github.com/drxagencia/dashboards/internal/store"
	"github.com/drxagencia/dashboards/internal/transport/http/middleware"
)

// Owner credentials seeded by New.
const (
	CompanyID = "pizzaria_do_ze"
	Email     = "dono@acme.com"
	Password  = "segredo"
)

// Fixture is an echo instance with a seeded company and a live session.
type Fixture struct {
	Echo      *echo.Echo
	Store     *store.Memory
	Writer    *store.Writer
	Cache     cache.Store
	Config    config.Config
	Events    *messaging.Publisher
	Sessions  *session.Service
	Guard     *middleware.Guard
	Logger    *zap.Logger
	Token     string
}

// New seeds the company, starts a writer and signs the owner in.
func New(t *testing.T) *Fixture {
	t.Helper()

	var cfg config.Config
	cfg.App.Location = time.UTC
	cfg.Cache.Driver = "memory"
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Session.TTL = time.Hour
	cfg.Session.CookieName = "painel_session"
	cfg.Observability.ServiceName = "painel-test"

	mem := store.NewMemory()
	require.NoError(t, mem.Update(context.Background(), store.ConfigPath(CompanyID), map[string]any{
		"email_dono": Email,
	}))

	writer := store.NewAsyncWriter(mem, store.WriterOptions{Buffer: 16, Timeout: time.Second})
	writer.Start()
	t.Cleanup(func() { _ = writer.Stop(context.Background()) })

	c, err := cache.NewMemoryStore(128, time.Minute)
	require.NoError(t, err)

	hash, err := auth.HashPassword(Password)
	require.NoError(t, err)
	authenticator := auth.NewStatic(auth.Account{UID: "owner-1", Email: Email, PasswordHash: hash})

	logger := zap.NewNop()
	sessions, err := session.NewService(session.Params{
		Authenticator: authenticator,
		Companies:     companyrepo.NewRepository(mem),
		Cache:         c,
		Config:        cfg,
		Logger:        logger,
	})
	require.NoError(t, err)

	client, err := messaging.NewClient(nil, cfg, logger)
	require.NoError(t, err)
	events := messaging.NewAsyncPublisher(client, messaging.PublisherOptions{Buffer: 16, Logger: logger})
	events.Start()
	t.Cleanup(func() { _ = events.Stop(context.Background()) })

	sess, err := sessions.Login(context.Background(), Email, Password)
	require.NoError(t, err)

	e := echo.New()
	e.Validator = request.NewValidator()

	return &Fixture{
		Echo:      e,
		Store:     mem,
		Writer:    writer,
		Cache:     c,
		Config:    cfg,
		Events:    events,
		Sessions:  sessions,
		Guard:     middleware.NewGuard(sessions, cfg),
		Logger:    logger,
		Token:     sess.Token,
	}
}

// Do serves a request carrying the owner's bearer token.
func (f *Fixture) Do(method, target, body string) *httptest.ResponseRecorder {
	return f.serve(method, target, body, "Bearer "+f.Token)
}

// DoAnonymous serves a request without credentials.
func (f *Fixture) DoAnonymous(method, target, body string) *httptest.ResponseRecorder {
	return f.serve(method, target, body, "")
}

func (f *Fixture) serve(method, target, body, authorization string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	f.Echo.ServeHTTP(rec, req)
	return rec
}

// Seed merges fields at path.
func (f *Fixture) Seed(t *testing.T, path string, fields map[string]any) {
	t.Helper()
	require.NoError(t, f.Store.Update(context.Background(), path, fields))
}

// Flush waits for queued writes to land and stops the writer.
func (f *Fixture) Flush(t *testing.T) {
	t.Helper()
	require.NoError(t, f.Writer.Stop(context.Background()))
}

// StreamRequest opens an authenticated request suitable for a live server.
func (f *Fixture) StreamRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+f.Token)
	return req, nil
}
