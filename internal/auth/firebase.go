package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Firebase signs in through the Identity Toolkit REST API.
type Firebase struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewFirebase builds the Identity Toolkit client.
func NewFirebase(baseURL, apiKey string, client *http.Client) *Firebase {
	if client == nil {
		client = http.DefaultClient
	}
	return &Firebase{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: client}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var credentialErrors = map[string]bool{
	"EMAIL_NOT_FOUND":           true,
	"INVALID_PASSWORD":          true,
	"INVALID_LOGIN_CREDENTIALS": true,
	"INVALID_EMAIL":             true,
	"MISSING_PASSWORD":          true,
	"USER_DISABLED":             true,
}

// SignIn exchanges an email and password for an identity.
func (f *Firebase) SignIn(ctx context.Context, email, password string) (Identity, error) {
	payload, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return Identity{}, err
	}

	endpoint := f.baseURL + "/accounts:signInWithPassword?" + url.Values{"key": {f.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("identity toolkit: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Identity{}, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		_ = json.Unmarshal(body, &apiErr)
		// messages look like "INVALID_PASSWORD" or "TOO_MANY_ATTEMPTS_TRY_LATER : ..."
		code, _, _ := strings.Cut(apiErr.Error.Message, " ")
		if credentialErrors[code] {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("identity toolkit error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out signInResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Identity{}, fmt.Errorf("decode sign-in response: %w", err)
	}
	return Identity{UID: out.LocalID, Email: NormalizeEmail(out.Email)}, nil
}
