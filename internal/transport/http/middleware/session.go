package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/presentation/http/response"
	"github.com/drxagencia/dashboards/internal/service/session"
)

const sessionKey = "painel.session"

// Guard rejects requests without a live owner session.
type Guard struct {
	sessions *session.Service
	cookie   string
}

// NewGuard builds the session guard.
func NewGuard(svc *session.Service, cfg config.Config) *Guard {
	return &Guard{sessions: svc, cookie: cfg.Session.CookieName}
}

// Require resolves the session and stores it on the context.
func (g *Guard) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := g.sessions.Resolve(c.Request().Context(), g.Token(c))
		if err != nil {
			return response.New(c).WithError(err).Build()
		}
		c.Set(sessionKey, sess)
		return next(c)
	}
}

// Token reads the bearer token, falling back to the session cookie.
func (g *Guard) Token(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(g.cookie); err == nil {
		return cookie.Value
	}
	return ""
}

// CookieName is the name of the session cookie.
func (g *Guard) CookieName() string {
	return g.cookie
}

// Current returns the session Require stored. Handlers behind the guard
// always have one.
func Current(c echo.Context) session.Session {
	sess, _ := c.Get(sessionKey).(session.Session)
	return sess
}
