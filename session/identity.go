package session

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload issued by the ranch backend.
type Claims struct {
	gojwt.RegisteredClaims
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Role     string   `json:"role,omitempty"`
	RanchIDs []string `json:"ranch_ids,omitempty"`
}

// Identity is the authenticated user as seen by the client.
type Identity struct {
	UserID    string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	RanchIDs  []string  `json:"ranch_ids,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the identity's token has expired at now. An
// identity without expiry never expires.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

func identityFromClaims(c *Claims) Identity {
	id := Identity{
		UserID:   c.Subject,
		Name:     c.Name,
		Email:    c.Email,
		Role:     c.Role,
		RanchIDs: c.RanchIDs,
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

func claimsFromIdentity(id Identity, issuedAt time.Time, ttl time.Duration) *Claims {
	c := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:  id.UserID,
			IssuedAt: gojwt.NewNumericDate(issuedAt),
		},
		Name:     id.Name,
		Email:    id.Email,
		Role:     id.Role,
		RanchIDs: id.RanchIDs,
	}
	if ttl > 0 {
		c.ExpiresAt = gojwt.NewNumericDate(issuedAt.Add(ttl))
	}
	return c
}
