package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/auth"
	"github.com/drxagencia/dashboards/internal/cache"
	"github.com/drxagencia/dashboards/internal/config"
	companyrepo "github.com/drxagencia/dashboards/internal/repository/company"
	"github.com/drxagencia/dashboards/internal/store"
	"github.com/drxagencia/dashboards/pkg/errorbank"
)

type deniedStore struct {
	store.Store
}

func (deniedStore) Read(context.Context, string) (store.Snapshot, error) {
	return store.Snapshot{}, store.ErrPermissionDenied
}

func newAuthenticator(t *testing.T) auth.Authenticator {
	t.Helper()
	hash, err := auth.HashPassword("segredo")
	require.NoError(t, err)
	return auth.NewStatic(
		auth.Account{UID: "u1", Email: "dono@acme.com", PasswordHash: hash},
		auth.Account{UID: "u2", Email: "orfao@acme.com", PasswordHash: hash},
	)
}

func newTestService(t *testing.T, s store.Store, driver string) *Service {
	t.Helper()
	var cfg config.Config
	cfg.Cache.Driver = driver
	cfg.Cache.MemorySize = 32
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Session.TTL = time.Hour

	var c cache.Store
	if driver == "memory" {
		mem, err := cache.NewMemoryStore(32, time.Minute)
		require.NoError(t, err)
		c = mem
	} else {
		c, _ = cache.NewStore(nil, config.Config{Cache: config.Cache{Driver: "noop"}}, zap.NewNop())
	}

	svc, err := NewService(Params{
		Authenticator: newAuthenticator(t),
		Companies:     companyrepo.NewRepository(s),
		Cache:         c,
		Config:        cfg,
		Logger:        zap.NewNop(),
	})
	require.NoError(t, err)
	return svc
}

func seededStore(t *testing.T) store.Store {
	t.Helper()
	mem := store.NewMemory()
	require.NoError(t, mem.Update(context.Background(), store.CompaniesPath(), map[string]any{
		"pizzaria_do_ze": map[string]any{"config": map[string]any{"email_dono": "Dono@Acme.com"}},
		"outra":          map[string]any{"config": map[string]any{"email_dono": "outro@acme.com"}},
	}))
	return mem
}

func requireKind(t *testing.T, err error, kind errorbank.Kind) *errorbank.AppError {
	t.Helper()
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, kind, appErr.Kind())
	return appErr
}

func TestLoginOpensSession(t *testing.T) {
	for _, driver := range []string{"memory", "noop"} {
		t.Run(driver, func(t *testing.T) {
			svc := newTestService(t, seededStore(t), driver)
			ctx := context.Background()

			sess, err := svc.Login(ctx, " DONO@acme.com ", "segredo")
			require.NoError(t, err)
			assert.NotEmpty(t, sess.Token)
			assert.Equal(t, "pizzaria_do_ze", sess.CompanyID)
			assert.Equal(t, "PIZZARIA DO ZE", sess.CompanyName)

			resolved, err := svc.Resolve(ctx, sess.Token)
			require.NoError(t, err)
			assert.Equal(t, sess.CompanyID, resolved.CompanyID)
			assert.Equal(t, "u1", resolved.UID)

			require.NoError(t, svc.Logout(ctx, sess.Token))
			_, err = svc.Resolve(ctx, sess.Token)
			requireKind(t, err, errorbank.KindUnauthorized)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := newTestService(t, seededStore(t), "memory")

	_, err := svc.Login(context.Background(), "dono@acme.com", "errada")
	requireKind(t, err, errorbank.KindUnauthorized)

	_, err = svc.Login(context.Background(), "", "")
	requireKind(t, err, errorbank.KindBadRequest)
}

func TestLoginFailsClosedOnLookup(t *testing.T) {
	noCompany := newTestService(t, seededStore(t), "memory")
	_, err := noCompany.Login(context.Background(), "orfao@acme.com", "segredo")
	missing := requireKind(t, err, errorbank.KindForbidden)

	denied := newTestService(t, deniedStore{}, "memory")
	_, err = denied.Login(context.Background(), "dono@acme.com", "segredo")
	refused := requireKind(t, err, errorbank.KindForbidden)

	assert.Equal(t, missing.Message(), refused.Message())
}

func TestLookupCompanyIsCached(t *testing.T) {
	mem := seededStore(t)
	svc := newTestService(t, mem, "memory")
	ctx := context.Background()

	company, err := svc.LookupCompany(ctx, "dono@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "pizzaria_do_ze", company.ID)

	svc.companies = companyrepo.NewRepository(deniedStore{})
	company, err = svc.LookupCompany(ctx, "DONO@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "pizzaria_do_ze", company.ID)
}

func TestResolveUnknownToken(t *testing.T) {
	svc := newTestService(t, seededStore(t), "memory")

	_, err := svc.Resolve(context.Background(), "nope")
	requireKind(t, err, errorbank.KindUnauthorized)
	_, err = svc.Resolve(context.Background(), "")
	requireKind(t, err, errorbank.KindUnauthorized)
}

func TestSessionsSurviveSharedCachePressure(t *testing.T) {
	shared, err := cache.NewMemoryStore(2, time.Minute)
	require.NoError(t, err)

	var cfg config.Config
	cfg.Cache.Driver = "memory"
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Session.TTL = time.Hour

	svc, err := NewService(Params{
		Authenticator: newAuthenticator(t),
		Companies:     companyrepo.NewRepository(seededStore(t)),
		Cache:         shared,
		Config:        cfg,
		Logger:        zap.NewNop(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "dono@acme.com", "segredo")
	require.NoError(t, err)

	for _, key := range []string{"finance:a", "finance:b", "finance:c", "company:owner:x"} {
		require.NoError(t, shared.Set(ctx, key, []byte("{}"), 0))
	}

	resolved, err := svc.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "pizzaria_do_ze", resolved.CompanyID)
}
