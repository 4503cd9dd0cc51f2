package auth

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Account is one entry of the static accounts file.
type Account struct {
	UID          string `yaml:"uid"`
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
}

type accountsFile struct {
	Accounts []Account `yaml:"accounts"`
}

// Static authenticates against a fixed list of bcrypt-hashed accounts.
type Static struct {
	accounts map[string]Account
}

// LoadStatic reads a YAML accounts file.
func LoadStatic(path string) (*Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	var file accountsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse accounts file: %w", err)
	}
	return NewStatic(file.Accounts...), nil
}

// NewStatic builds a Static authenticator from accounts.
func NewStatic(accounts ...Account) *Static {
	s := &Static{accounts: make(map[string]Account, len(accounts))}
	for _, a := range accounts {
		email := NormalizeEmail(a.Email)
		if email == "" {
			continue
		}
		if a.UID == "" {
			a.UID = email
		}
		a.Email = email
		s.accounts[email] = a
	}
	return s
}

// Len returns the number of configured accounts.
func (s *Static) Len() int {
	return len(s.accounts)
}

// SignIn checks the password against the stored hash.
func (s *Static) SignIn(_ context.Context, email, password string) (Identity, error) {
	account, ok := s.accounts[NormalizeEmail(email)]
	if !ok {
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{UID: account.UID, Email: account.Email}, nil
}

// HashPassword produces a hash suitable for the accounts file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
