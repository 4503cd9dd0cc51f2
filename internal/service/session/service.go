package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/auth"
	"github.com/drxagencia/dashboards/internal/cache"
	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/entity"
	"github.com/drxagencia/dashboards/internal/observability"
	companyrepo "github.com/drxagencia/dashboards/internal/repository/company"
	"github.com/drxagencia/dashboards/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/drxagencia/dashboards/service/session")

// accessDenied is shown for every company lookup failure, whether no
// company matched or the read itself failed.
const accessDenied = "this account is not linked to any company"

// Session binds a signed-in owner to the company they own.
type Session struct {
	Token       string    `json:"-"`
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service signs owners in and out.
type Service struct {
	auth      auth.Authenticator
	companies *companyrepo.Repository
	sessions  cache.Store
	lookups   cache.Store
	ttl       time.Duration
	lookupTTL time.Duration
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Authenticator auth.Authenticator
	Companies     *companyrepo.Repository
	Cache         cache.Store
	Config        config.Config
	Logger        *zap.Logger
	Metrics       *observability.Metrics `optional:"true"`
}

// NewService wires a new Service instance. Only redis is shared and
// persistent enough to hold sessions; with any other cache driver they are
// kept in a dedicated in-process store that never evicts a live session.
func NewService(p Params) (*Service, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions := p.Cache
	if sessions == nil || p.Config.Cache.Driver != "redis" {
		sessions = cache.NewSessionStore(p.Config.Session.TTL)
		logger.Info("keeping sessions in process", zap.String("cache_driver", p.Config.Cache.Driver))
	}
	ttl := p.Config.Session.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		auth:      p.Authenticator,
		companies: p.Companies,
		sessions:  sessions,
		lookups:   p.Cache,
		ttl:       ttl,
		lookupTTL: p.Config.Cache.DefaultTTL,
		logger:    logger,
		metrics:   p.Metrics,
		now:       time.Now,
	}, nil
}

// Login verifies the credentials, resolves the owner's company once and
// opens a session. No session is created when the company cannot be
// resolved.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	ctx, span := serviceTracer.Start(ctx, "SessionService.Login")
	defer span.End()

	email = auth.NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, errorbank.BadRequest("email and password are required")
	}

	identity, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.metrics.Login(ctx, "invalid_credentials")
			return Session{}, errorbank.Unauthorized("invalid credentials")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign-in failed")
		s.metrics.Login(ctx, "auth_error")
		return Session{}, errorbank.Unavailable("authentication service unavailable", errorbank.WithCause(err))
	}

	company, err := s.resolveCompany(ctx, identity.Email)
	if err != nil {
		s.logger.Warn("company lookup failed; refusing session",
			zap.String("email", identity.Email),
			zap.Error(err),
		)
		s.metrics.Login(ctx, "no_company")
		return Session{}, errorbank.Forbidden(accessDenied)
	}

	sess := Session{
		Token:       uuid.NewString(),
		UID:         identity.UID,
		Email:       identity.Email,
		CompanyID:   company.ID,
		CompanyName: company.DisplayName(),
		ExpiresAt:   s.now().Add(s.ttl).UTC(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return Session{}, errorbank.Internal("failed to open session", errorbank.WithCause(err))
	}
	if err := s.sessions.Set(ctx, sessionKey(sess.Token), payload, s.ttl); err != nil {
		span.RecordError(err)
		return Session{}, errorbank.Unavailable("failed to open session", errorbank.WithCause(err))
	}

	s.metrics.Login(ctx, "ok")
	s.logger.Info("owner signed in", zap.String("company", company.ID), zap.String("uid", identity.UID))
	return sess, nil
}

// Resolve returns the live session behind token.
func (s *Service) Resolve(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, errorbank.Unauthorized("sign in required")
	}
	payload, err := s.sessions.Get(ctx, sessionKey(token))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("session read failed", zap.Error(err))
		}
		return Session{}, errorbank.Unauthorized("session expired")
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, errorbank.Unauthorized("session expired")
	}
	sess.Token = token
	return sess, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionKey(token)); err != nil {
		return errorbank.Unavailable("failed to close session", errorbank.WithCause(err))
	}
	return nil
}

// LookupCompany resolves the company owned by email, consulting the cache
// first. The store has no index on owner email, so misses scan every
// company.
func (s *Service) LookupCompany(ctx context.Context, email string) (entity.Company, error) {
	return s.resolveCompany(ctx, auth.NormalizeEmail(email))
}

func (s *Service) resolveCompany(ctx context.Context, email string) (entity.Company, error) {
	key := ownerKey(email)
	if s.lookups != nil {
		if raw, err := s.lookups.Get(ctx, key); err == nil {
			var company cachedCompany
			if json.Unmarshal(raw, &company) == nil && company.ID != "" {
				return entity.Company{ID: company.ID, Config: company.Config}, nil
			}
		}
	}

	company, err := s.companies.FindByOwnerEmail(ctx, email)
	if err != nil {
		return entity.Company{}, err
	}

	if s.lookups != nil {
		raw, err := json.Marshal(cachedCompany{ID: company.ID, Config: company.Config})
		if err == nil {
			err = s.lookups.Set(ctx, key, raw, s.lookupTTL)
		}
		if err != nil {
			s.logger.Warn("company cache write failed", zap.Error(err))
		}
	}
	return company, nil
}

type cachedCompany struct {
	ID     string               `json:"id"`
	Config entity.CompanyConfig `json:"config"`
}

func sessionKey(token string) string {
	return "session:" + token
}

func ownerKey(email string) string {
	return "company:owner:" + email
}
