package service

import (
	"context"
	"errors"
	"time"

	"github.com/tapstone/edcd/internal/edc/domain"
	"github.com/tapstone/edcd/internal/edc/store"
	"github.com/tapstone/edcd/pkg/cryptox"
	"github.com/tapstone/edcd/pkg/httpx"
	"github.com/tapstone/edcd/pkg/idx"
	"github.com/tapstone/edcd/pkg/jwtx"
	"github.com/tapstone/edcd/pkg/slogx"
)

var (
	// ErrUsernameTaken reports a duplicate sign-up.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrBadCredentials deliberately covers both an unknown username and a
	// wrong password so responses cannot be used for username enumeration.
	ErrBadCredentials = errors.New("username or password is incorrect")

	// ErrInvalidRefresh reports a refresh token that no user currently
	// holds: unknown, rotated out, or fabricated.
	ErrInvalidRefresh = errors.New("invalid refresh token")

	// ErrRefreshExpired reports a stored refresh token past its expiry. The
	// stored value is cleared, forcing a fresh sign-in.
	ErrRefreshExpired = errors.New("refresh token has expired")

	// ErrNotSignedIn reports a sign-out for a user with no live session.
	ErrNotSignedIn = errors.New("user is not logged in")
)

// AuthService owns the authentication lifecycle for human users: sign-up,
// sign-in, refresh and sign-out. Each operation runs inside a single store
// transaction so a generated-but-unpersisted token can never be observed.
type AuthService struct {
	Store      store.Store
	Codec      *jwtx.Codec
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SignUp registers a new user and signs them in.
//
// The username existence check runs before password hashing to avoid wasted
// work, but it is check-then-act: the unique index on username is the real
// guarantee, and a conflicting concurrent insert still surfaces as
// ErrUsernameTaken.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (domain.User, domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	_, err := s.Store.Users().GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return domain.User{}, domain.TokenPair{}, ErrUsernameTaken
	case !errors.Is(err, store.ErrNotFound):
		return domain.User{}, domain.TokenPair{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
	}

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrUsernameTaken
			}
			return err
		}

		pair, err = s.issuePair(user, time.Now())
		if err != nil {
			return err
		}
		return tx.Users().UpdateRefreshToken(ctx, user.ID, &pair.RefreshToken)
	})
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	user.RefreshToken = &pair.RefreshToken
	log.Info("user signed up", "username", username, "user_id", user.ID)
	return user, pair, nil
}

// SignIn authenticates a username/password pair and issues a fresh token
// pair, overwriting any previously stored refresh token. At most one session
// is live per user; concurrent sign-ins race last-write-wins by design.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (domain.User, domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	var user domain.User
	var pair domain.TokenPair
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.Users().GetUserByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrBadCredentials
			}
			return err
		}

		if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
			log.Info("password verification failed", "username", username)
			return ErrBadCredentials
		}

		pair, err = s.issuePair(user, time.Now())
		if err != nil {
			return err
		}
		return tx.Users().UpdateRefreshToken(ctx, user.ID, &pair.RefreshToken)
	})
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	user.RefreshToken = &pair.RefreshToken
	log.Info("user signed in", "username", username, "user_id", user.ID)
	return user, pair, nil
}

// Refresh exchanges a live refresh token for a new access token.
//
// The user is looked up by the exact stored token value before the token is
// decoded: a rotated-out token finds no row and is rejected even while its
// signature and expiry are still valid. The refresh token itself is not
// rotated here; callers reuse it until it expires or sign-out clears it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.User, string, error) {
	log := slogx.FromContext(ctx)

	var user domain.User
	var access string
	var expired bool
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.Users().GetUserByRefreshToken(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		if _, err := s.Codec.Parse(refreshToken); err != nil {
			if errors.Is(err, jwtx.ErrExpired) {
				// Clear the lapsed token so the user must sign in again. The
				// tx still commits: the clear must survive the failure.
				expired = true
				return tx.Users().UpdateRefreshToken(ctx, user.ID, nil)
			}
			return ErrInvalidRefresh
		}

		access, err = s.Codec.Sign(jwtx.NewClaims(user.Username, user.ID, s.AccessTTL, time.Now()))
		return err
	})
	if err != nil {
		return domain.User{}, "", err
	}
	if expired {
		return domain.User{}, "", ErrRefreshExpired
	}

	log.Info("access token refreshed", "username", user.Username, "user_id", user.ID)
	return user, access, nil
}

// SignOut clears the user's stored refresh token. It requires an
// already-resolved identity; the identity gate has run by the time this is
// called.
func (s *AuthService) SignOut(ctx context.Context, userID string) error {
	log := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.SignedIn() {
			return ErrNotSignedIn
		}
		return tx.Users().UpdateRefreshToken(ctx, user.ID, nil)
	})
	if err != nil {
		return err
	}

	log.Info("user signed out", "user_id", userID)
	return nil
}

// ResolveIdentity implements httpx.IdentityResolver for the request gate:
// it maps a token subject to a live user record.
func (s *AuthService) ResolveIdentity(ctx context.Context, username string) (httpx.Identity, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		return httpx.Identity{}, err
	}
	return httpx.Identity{UserID: user.ID, Username: user.Username}, nil
}

func (s *AuthService) issuePair(u domain.User, now time.Time) (domain.TokenPair, error) {
	access, err := s.Codec.Sign(jwtx.NewClaims(u.Username, u.ID, s.AccessTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.Codec.Sign(jwtx.NewClaims(u.Username, u.ID, s.RefreshTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
