// Package auth signs owners in against the configured identity provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/drxagencia/dashboards/internal/config"
)

// ErrInvalidCredentials is returned for a wrong email or password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Identity is a signed-in user.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Authenticator verifies email/password pairs.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
}

// Module provides the configured Authenticator.
var Module = fx.Provide(New)

// New selects the identity provider (firebase or static).
func New(cfg config.Config, logger *zap.Logger) (Authenticator, error) {
	switch cfg.Auth.Driver {
	case "firebase":
		logger.Info("using firebase identity provider")
		return NewFirebase(cfg.Auth.IdentityURL, cfg.Auth.FirebaseAPIKey, http.DefaultClient), nil
	case "static":
		a, err := LoadStatic(cfg.Auth.AccountsFile)
		if err != nil {
			return nil, err
		}
		logger.Info("using static accounts", zap.String("file", cfg.Auth.AccountsFile), zap.Int("accounts", a.Len()))
		return a, nil
	default:
		return nil, fmt.Errorf("unsupported auth driver: %s", cfg.Auth.Driver)
	}
}

// NormalizeEmail lower-cases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
