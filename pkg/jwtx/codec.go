package jwtx

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrBadSignature = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
)

// Codec signs and parses HS256 tokens with a single symmetric key. The key is
// derived once at construction and immutable afterwards, so a Codec is safe
// for concurrent use.
type Codec struct {
	key []byte
}

// NewCodec derives the signing key from the configured secret. The secret
// must be non-empty; there is no safe fallback for a missing key.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("jwtx: empty signing secret")
	}
	return &Codec{key: []byte(secret)}, nil
}

// Sign serializes and signs the claims into compact JWS form. Failures here
// are programmer errors (unserializable claims), not runtime conditions.
func (c *Codec) Sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.key)
}

// Parse verifies the token structure, signature and expiry, in that order.
//
// Structural validation runs before any cryptographic work: an empty token,
// the literal "null" (a common client serialization bug), or anything that is
// not exactly three dot-separated segments is rejected as ErrMalformed
// without invoking the verifier. Callers distinguish ErrMalformed,
// ErrBadSignature and ErrExpired for telemetry but must treat all three as
// unauthenticated.
func (c *Codec) Parse(token string) (Claims, error) {
	if !WellFormed(token) {
		return Claims{}, ErrMalformed
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return c.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		default:
			return Claims{}, ErrMalformed
		}
	}
	return claims, nil
}

// WellFormed performs the cheap structural check on a compact token without
// touching the signature. Exposed so the request gate can pre-screen tokens
// the same way the codec does.
func WellFormed(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" || token == "null" {
		return false
	}
	return strings.Count(token, ".") == 2
}
