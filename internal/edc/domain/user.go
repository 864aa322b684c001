package domain

import "time"

// User is a registered human account. At most one refresh token is live per
// user at a time; a nil RefreshToken means the user is not currently signed
// in. Users are never deleted by the auth subsystem.
type User struct {
	ID           string
	Username     string
	PasswordHash string  // argon2id, PHC encoded
	RefreshToken *string // currently live refresh token, nil when signed out
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SignedIn reports whether the user currently holds a live refresh token.
func (u User) SignedIn() bool {
	return u.RefreshToken != nil && *u.RefreshToken != ""
}
