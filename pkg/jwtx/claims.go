package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. These provide sensible security defaults but
// can be overridden per-service via configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	// Short-lived for security - typical range is 15m to 1h.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	// Longer-lived for user convenience - typical range is 7d to 30d.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the token claims shared by access and refresh tokens. The two
// differ only in lifetime; we keep changes additive to preserve compatibility
// with already-issued tokens.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the internal identifier of the authenticated user. The
	// subject claim carries the username; this carries the row ID.
	UserID string `json:"uid,omitempty"`
}

// NewClaims builds minimally-correct claims for a token with the given
// subject and lifetime.
func NewClaims(subject, userID string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
}

// Expired reports whether the exp claim has lapsed. Tokens without an exp
// claim never expire; the codec always sets one.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(c.ExpiresAt.Time)
}
