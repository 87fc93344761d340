package httpclient

import (
	"context"
	"net/http"
)

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer sends a fixed bearer token.
	AuthBearer
	// AuthBearerFunc asks a token source on every request.
	AuthBearerFunc
	// AuthBasic uses HTTP Basic authentication.
	AuthBasic
)

// TokenFunc returns the current bearer token. An empty token sends the
// request unauthenticated.
type TokenFunc func(ctx context.Context) (string, error)

// AuthConfig configures request authentication.
type AuthConfig struct {
	Type     AuthType
	Token    string
	TokenFn  TokenFunc
	Username string
	Password string
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BearerTokenFunc creates an auth config that reads the token per request,
// so a login or logout takes effect without rebuilding the adapter.
func BearerTokenFunc(fn TokenFunc) *AuthConfig {
	return &AuthConfig{Type: AuthBearerFunc, TokenFn: fn}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

func (a *AuthConfig) apply(ctx context.Context, req *http.Request) error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case AuthBearer:
		setBearer(req, a.Token)
	case AuthBearerFunc:
		if a.TokenFn == nil {
			return nil
		}
		token, err := a.TokenFn(ctx)
		if err != nil {
			return err
		}
		setBearer(req, token)
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	}
	return nil
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
