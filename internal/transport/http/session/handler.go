package session

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/drxagencia/dashboards/internal/config"
	"github.com/drxagencia/dashboards/internal/dto"
	"github.com/drxagencia/dashboards/internal/presentation/http/request"
	"github.com/drxagencia/dashboards/internal/presentation/http/response"
	service "github.com/drxagencia/dashboards/internal/service/session"
	"github.com/drxagencia/dashboards/internal/transport/http/middleware"
)

// Handler exposes sign-in endpoints over HTTP.
type Handler struct {
	svc          *service.Service
	guard        *middleware.Guard
	cookieSecure bool
}

// NewHandler constructs a session Handler.
func NewHandler(svc *service.Service, guard *middleware.Guard, cfg config.Config) *Handler {
	return &Handler{svc: svc, guard: guard, cookieSecure: cfg.Session.CookieSecure}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/auth")
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.GET("/me", h.me, h.guard.Require)
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload dto.LoginRequest
	if err := request.Bind(c, &payload); err != nil {
		return b.WithError(err).Build()
	}

	sess, err := h.svc.Login(c.Request().Context(), payload.Email, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}

	c.SetCookie(&http.Cookie{
		Name:     h.guard.CookieName(),
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	resp := toDTO(sess)
	resp.Token = sess.Token
	return b.WithData(resp).Build()
}

func (h *Handler) logout(c echo.Context) error {
	b := response.New(c)

	if err := h.svc.Logout(c.Request().Context(), h.guard.Token(c)); err != nil {
		return b.WithError(err).Build()
	}
	c.SetCookie(&http.Cookie{
		Name:     h.guard.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return b.WithData(map[string]bool{"signed_out": true}).Build()
}

func (h *Handler) me(c echo.Context) error {
	return response.New(c).WithData(toDTO(middleware.Current(c))).Build()
}

func toDTO(sess service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Email:       sess.Email,
		CompanyID:   sess.CompanyID,
		CompanyName: sess.CompanyName,
		ExpiresAt:   sess.ExpiresAt,
	}
}
