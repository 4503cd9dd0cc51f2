package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drxagencia/dashboards/pkg/errorbank"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Kind    string         `json:"kind"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Meta map[string]any `json:"meta"`
}

func run(t *testing.T, build func(b *Builder) error) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.Response().Header().Set(echo.HeaderXRequestID, "req-1")

	require.NoError(t, build(New(c)))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestBuildSuccess(t *testing.T) {
	rec, env := run(t, func(b *Builder) error {
		return b.WithStatus(http.StatusAccepted).WithData(map[string]bool{"ok": true}).Build()
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"ok":true}`, string(env.Data))
	assert.Equal(t, "req-1", env.Meta["request_id"])
}

func TestBuildError(t *testing.T) {
	rec, env := run(t, func(b *Builder) error {
		return b.WithError(errorbank.Forbidden("nope", errorbank.WithDetail("company", "acme"))).Build()
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "forbidden", env.Error.Kind)
	assert.Equal(t, "nope", env.Error.Message)
	assert.Equal(t, "acme", env.Error.Details["company"])
}

func TestBuildUnexpectedError(t *testing.T) {
	rec, env := run(t, func(b *Builder) error {
		return b.WithError(assert.AnError).Build()
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", env.Error.Kind)
}
