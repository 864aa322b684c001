package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tapstone/edcd/internal/edc/domain"
	"github.com/tapstone/edcd/internal/edc/service"
	"github.com/tapstone/edcd/pkg/httpx"
	"github.com/tapstone/edcd/pkg/slogx"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 8
	maxPasswordLen = 128
)

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	AuthService *service.AuthService
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	ID       string            `json:"id"`
	Username string            `json:"username"`
	Tokens   *domain.TokenPair `json:"tokens,omitempty"`
}

// validate rejects malformed credentials before they reach the service. The
// bounds are input-shape checks only, not a password policy.
func (req *credentialsRequest) validate() string {
	switch {
	case req.Username == "":
		return "username is required"
	case len(req.Username) < minUsernameLen || len(req.Username) > maxUsernameLen:
		return "username must be between 3 and 64 characters"
	case req.Password == "":
		return "password is required"
	case len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen:
		return "password must be between 8 and 128 characters"
	}
	return ""
}

func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", msg)
		return
	}

	user, pair, err := h.AuthService.SignUp(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			httpx.WriteError(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		log.Error("sign-up failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error", "failed to create user")
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, "user registered successfully", authResponse{
		ID:       user.ID,
		Username: user.Username,
		Tokens:   &pair,
	})
}

func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "username and password are required")
		return
	}

	user, pair, err := h.AuthService.SignIn(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			httpx.WriteError(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		log.Error("sign-in failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error", "failed to sign in")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "signed in successfully", authResponse{
		ID:       user.ID,
		Username: user.Username,
		Tokens:   &pair,
	})
}

func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "refreshToken is required")
		return
	}

	user, access, err := h.AuthService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefresh), errors.Is(err, service.ErrRefreshExpired):
			httpx.WriteError(w, http.StatusNotFound, "Not Found", err.Error())
		default:
			log.Error("token refresh failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error", "failed to refresh token")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "token refreshed successfully", authResponse{
		ID:       user.ID,
		Username: user.Username,
		Tokens: &domain.TokenPair{
			AccessToken:  access,
			RefreshToken: req.RefreshToken,
		},
	})
}

func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", "invalid token or token expired")
		return
	}

	if err := h.AuthService.SignOut(ctx, identity.UserID); err != nil {
		if errors.Is(err, service.ErrNotSignedIn) {
			httpx.WriteError(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		log.Error("sign-out failed", "error", err, "user_id", identity.UserID)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error", "failed to sign out")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "signed out successfully", nil)
}
