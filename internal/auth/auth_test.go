package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/drxagencia/dashboards/internal/auth"
)

func TestFirebaseSignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "api-key", r.URL.Query().Get("key"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["password"] != "certa" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"localId":"uid-1","email":"Dono@Acme.com","idToken":"tok"}`)
	}))
	defer srv.Close()

	fb := auth.NewFirebase(srv.URL+"/v1/", "api-key", srv.Client())

	id, err := fb.SignIn(context.Background(), "dono@acme.com", "certa")
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UID: "uid-1", Email: "dono@acme.com"}, id)

	_, err = fb.SignIn(context.Background(), "dono@acme.com", "errada")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestFirebaseSignInUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"TOO_MANY_ATTEMPTS_TRY_LATER : Access disabled"}}`)
	}))
	defer srv.Close()

	_, err := auth.NewFirebase(srv.URL, "k", nil).SignIn(context.Background(), "a@b.c", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestStaticSignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("segredo"), bcrypt.MinCost)
	require.NoError(t, err)

	dir := t.TempDir()
	file := filepath.Join(dir, "accounts.yaml")
	require.NoError(t, os.WriteFile(file, []byte("accounts:\n  - email: Dono@Acme.com\n    password_hash: "+string(hash)+"\n"), 0o600))

	s, err := auth.LoadStatic(file)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	id, err := s.SignIn(context.Background(), " dono@acme.com ", "segredo")
	require.NoError(t, err)
	assert.Equal(t, "dono@acme.com", id.Email)
	assert.Equal(t, "dono@acme.com", id.UID)

	_, err = s.SignIn(context.Background(), "dono@acme.com", "errado")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = s.SignIn(context.Background(), "outro@acme.com", "segredo")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoadStaticMissingFile(t *testing.T) {
	_, err := auth.LoadStatic(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("abc")
	require.NoError(t, err)
	s := auth.NewStatic(auth.Account{Email: "a@b.c", PasswordHash: hash})
	_, err = s.SignIn(context.Background(), "a@b.c", "abc")
	assert.NoError(t, err)
}
