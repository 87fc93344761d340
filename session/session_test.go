package session

import (
	"context"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/kbukum/ranchkit/errors"
	"github.com/kbukum/ranchkit/kvstore"
)

const testSecret = "test-secret"

var testIdentity = Identity{
	UserID:   "u-42",
	Name:     "Ada",
	Email:    "ada@example.com",
	Role:     "owner",
	RanchIDs: []string{"r-1", "r-2"},
}

func signedToken(t *testing.T, id Identity, issuedAt time.Time, ttl time.Duration) string {
	t.Helper()
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claimsFromIdentity(id, issuedAt, ttl)).
		SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestParseToken(t *testing.T) {
	now := time.Now()
	valid := signedToken(t, testIdentity, now, time.Hour)
	expired := signedToken(t, testIdentity, now.Add(-2*time.Hour), time.Hour)
	noSubject := signedToken(t, Identity{Name: "anon"}, now, time.Hour)

	tests := []struct {
		name     string
		token    string
		wantCode apperrors.ErrorCode
	}{
		{"valid", valid, ""},
		{"expired", expired, apperrors.ErrCodeTokenExpired},
		{"garbage", "not-a-jwt", apperrors.ErrCodeInvalidToken},
		{"no subject", noSubject, apperrors.ErrCodeInvalidToken},
		{"empty", "", apperrors.ErrCodeMissingField},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseToken(tc.token, now)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if id.UserID != "u-42" || id.Role != "owner" || len(id.RanchIDs) != 2 {
					t.Errorf("unexpected identity %+v", id)
				}
				return
			}
			if !apperrors.HasCode(err, tc.wantCode) {
				t.Errorf("expected %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestIssueAndVerify(t *testing.T) {
	tok, err := Issue(testSecret, testIdentity, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := Verify(testSecret, tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != testIdentity.UserID || id.ExpiresAt.IsZero() {
		t.Errorf("unexpected identity %+v", id)
	}

	if _, err := Verify("other-secret", tok); !apperrors.HasCode(err, apperrors.ErrCodeInvalidToken) {
		t.Errorf("expected INVALID_TOKEN for wrong secret, got %v", err)
	}

	expired := signedToken(t, testIdentity, time.Now().Add(-2*time.Hour), time.Hour)
	if _, err := Verify(testSecret, expired); !apperrors.HasCode(err, apperrors.ErrCodeTokenExpired) {
		t.Errorf("expected TOKEN_EXPIRED, got %v", err)
	}

	if _, err := Issue("", testIdentity, time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestSessionLoginLogout(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	s := New(store)

	if tok, err := s.Token(ctx); err != nil || tok != "" {
		t.Fatalf("signed-out Token = %q, %v", tok, err)
	}
	if _, err := s.Identity(ctx); !apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}

	token := signedToken(t, testIdentity, time.Now(), time.Hour)
	id, err := s.Login(ctx, token)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if id.UserID != "u-42" {
		t.Errorf("unexpected identity %+v", id)
	}
	if got, _ := store.Get(ctx, KeyToken); got != token {
		t.Error("token should be persisted")
	}
	if !s.Authenticated(ctx) {
		t.Error("expected authenticated session")
	}
	if tok, err := s.Token(ctx); err != nil || tok != token {
		t.Errorf("Token = %q, %v", tok, err)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store after logout, have %d keys", store.Len())
	}
}

func TestSessionRejectsExpiredLogin(t *testing.T) {
	s := New(kvstore.NewMemory())
	expired := signedToken(t, testIdentity, time.Now().Add(-2*time.Hour), time.Hour)
	if _, err := s.Login(context.Background(), expired); !apperrors.HasCode(err, apperrors.ErrCodeTokenExpired) {
		t.Errorf("expected TOKEN_EXPIRED, got %v", err)
	}
}

func TestSessionExpiresStoredToken(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	now := time.Now()
	s := New(store, WithClock(func() time.Time { return now }))

	if _, err := s.Login(ctx, signedToken(t, testIdentity, now, time.Minute)); err != nil {
		t.Fatalf("Login: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Token(ctx); !apperrors.HasCode(err, apperrors.ErrCodeTokenExpired) {
		t.Fatalf("expected TOKEN_EXPIRED, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("expired session should be cleared")
	}
}

func TestSessionFallsBackToTokenClaims(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	token := signedToken(t, testIdentity, time.Now(), time.Hour)
	_ = store.Set(ctx, KeyToken, token)
	_ = store.Set(ctx, KeyUser, "{corrupt")

	id, err := New(store).Identity(ctx)
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if id.Email != testIdentity.Email {
		t.Errorf("expected identity from claims, got %+v", id)
	}
}
