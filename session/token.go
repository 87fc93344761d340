package session

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/kbukum/ranchkit/errors"
)

// ParseToken reads the claims of token without verifying its signature and
// rejects it when expired at now.
func ParseToken(token string, now time.Time) (Identity, error) {
	if token == "" {
		return Identity{}, apperrors.MissingField("token")
	}
	claims := &Claims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, apperrors.InvalidToken(err)
	}
	if claims.Subject == "" {
		return Identity{}, apperrors.InvalidToken(errors.New("token has no subject"))
	}
	id := identityFromClaims(claims)
	if id.Expired(now) {
		return Identity{}, apperrors.TokenExpired()
	}
	return id, nil
}

// Issue signs an HS256 token for id that expires after ttl. A ttl of zero
// issues a token without expiry.
func Issue(secret string, id Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", apperrors.MissingField("secret")
	}
	if id.UserID == "" {
		return "", apperrors.MissingField("user id")
	}
	tok := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claimsFromIdentity(id, time.Now(), ttl))
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of an HS256 token.
func Verify(secret, token string) (Identity, error) {
	claims := &Claims{}
	_, err := gojwt.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if errors.Is(err, gojwt.ErrTokenExpired) {
		return Identity{}, apperrors.TokenExpired()
	}
	if err != nil {
		return Identity{}, apperrors.InvalidToken(err)
	}
	return identityFromClaims(claims), nil
}
