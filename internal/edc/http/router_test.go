package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tapstone/edcd/internal/edc/service"
	"github.com/tapstone/edcd/internal/edc/store/drivers/sqlite"
	"github.com/tapstone/edcd/pkg/hmacsig"
	"github.com/tapstone/edcd/pkg/jwtx"
)

const echoTestSecret = "handler-test-signature-secret"

// newTestRouter wires a full router over a fresh database, the same way the
// application does at startup.
func newTestRouter(t *testing.T) *Router {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := jwtx.NewCodec("handler-test-secret")
	require.NoError(t, err)

	verifier, err := hmacsig.New(echoTestSecret, "HmacSHA256", 120*time.Second)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	router := NewRouter(codec, "test", st, logger)
	router.AuthService = &service.AuthService{
		Store:      st,
		Codec:      codec,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	router.TerminalService = &service.TerminalService{Store: st}
	router.EchoService = &service.EchoService{Store: st, Verifier: verifier}
	router.ApplyRoutes()
	return router
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, router *Router, method, path, bearer string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

type tokensPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Tokens   struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
}

// signUp registers a user through the API and returns the issued tokens.
func signUp(t *testing.T, router *Router, username string) tokensPayload {
	t.Helper()

	code, env := doJSON(t, router, http.MethodPost, "/api/auth/sign-up", "",
		map[string]string{"username": username, "password": "hunter2hunter2"})
	require.Equal(t, http.StatusCreated, code)

	var payload tokensPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.NotEmpty(t, payload.Tokens.AccessToken)
	return payload
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/livez", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var health HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		require.Equal(t, "ok", health.Status)
	}
}

func TestAuthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	t.Run("sign-up validates input", func(t *testing.T) {
		code, env := doJSON(t, router, http.MethodPost, "/api/auth/sign-up", "",
			map[string]string{"username": "alice", "password": "short"})
		require.Equal(t, http.StatusBadRequest, code)
		require.Equal(t, "Bad Request", env.Error)
	})

	t.Run("sign-up then duplicate", func(t *testing.T) {
		signUp(t, router, "alice")

		code, env := doJSON(t, router, http.MethodPost, "/api/auth/sign-up", "",
			map[string]string{"username": "alice", "password": "hunter2hunter2"})
		require.Equal(t, http.StatusConflict, code)
		require.Equal(t, "Conflict", env.Error)
	})

	t.Run("sign-in", func(t *testing.T) {
		code, env := doJSON(t, router, http.MethodPost, "/api/auth/sign-in", "",
			map[string]string{"username": "alice", "password": "hunter2hunter2"})
		require.Equal(t, http.StatusOK, code)
		require.NotEmpty(t, env.Message)

		code, env = doJSON(t, router, http.MethodPost, "/api/auth/sign-in", "",
			map[string]string{"username": "alice", "password": "wrongpassword"})
		require.Equal(t, http.StatusNotFound, code)
		require.Equal(t, "username or password is incorrect", env.Message)
	})

	t.Run("refresh", func(t *testing.T) {
		payload := signUp(t, router, "bob")

		code, env := doJSON(t, router, http.MethodPost, "/api/auth/refresh", "",
			map[string]string{"refreshToken": payload.Tokens.RefreshToken})
		require.Equal(t, http.StatusOK, code)

		var refreshed tokensPayload
		require.NoError(t, json.Unmarshal(env.Data, &refreshed))
		require.NotEmpty(t, refreshed.Tokens.AccessToken)
		require.Equal(t, payload.Tokens.RefreshToken, refreshed.Tokens.RefreshToken,
			"refresh token is not rotated")

		code, _ = doJSON(t, router, http.MethodPost, "/api/auth/refresh", "",
			map[string]string{"refreshToken": "aaaa.bbbb.cccc"})
		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("sign-out", func(t *testing.T) {
		payload := signUp(t, router, "carol")

		code, _ := doJSON(t, router, http.MethodPost, "/api/auth/sign-out", "", nil)
		require.Equal(t, http.StatusUnauthorized, code)

		code, _ = doJSON(t, router, http.MethodPost, "/api/auth/sign-out", payload.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, code)

		// The bearer token still authenticates, but there is no session left.
		code, _ = doJSON(t, router, http.MethodPost, "/api/auth/sign-out", payload.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusNotFound, code)
	})
}

func TestTerminalEndpoints(t *testing.T) {
	router := newTestRouter(t)
	token := signUp(t, router, "operator").Tokens.AccessToken

	t.Run("requires bearer", func(t *testing.T) {
		code, env := doJSON(t, router, http.MethodGet, "/api/edc", "", nil)
		require.Equal(t, http.StatusUnauthorized, code)
		require.Equal(t, "invalid token or token expired", env.Message)
	})

	t.Run("create and fetch", func(t *testing.T) {
		code, env := doJSON(t, router, http.MethodPost, "/api/edc", token, map[string]any{
			"terminalId":   "EDC-JKT-001",
			"location":     "Jakarta Pusat",
			"status":       "ACTIVE",
			"manufacturer": "Verifone",
		})
		require.Equal(t, http.StatusCreated, code)

		var created terminalResponse
		require.NoError(t, json.Unmarshal(env.Data, &created))
		require.Equal(t, "EDC-JKT-001", created.TerminalID)
		require.Equal(t, "ACTIVE", created.Status)

		code, env = doJSON(t, router, http.MethodGet, "/api/edc/EDC-JKT-001", token, nil)
		require.Equal(t, http.StatusOK, code)

		code, _ = doJSON(t, router, http.MethodGet, "/api/edc/EDC-JKT-999", token, nil)
		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("create rejects malformed id", func(t *testing.T) {
		code, _ := doJSON(t, router, http.MethodPost, "/api/edc", token, map[string]any{
			"terminalId": "TAXI-JKT-001",
			"location":   "Jakarta",
		})
		require.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("list with filters", func(t *testing.T) {
		code, env := doJSON(t, router, http.MethodGet, "/api/edc?status=active&size=5", token, nil)
		require.Equal(t, http.StatusOK, code)

		var page struct {
			Content       []terminalResponse `json:"content"`
			TotalElements int64              `json:"totalElements"`
			Size          int                `json:"size"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &page))
		require.EqualValues(t, 1, page.TotalElements)
		require.Equal(t, 5, page.Size)

		code, _ = doJSON(t, router, http.MethodGet, "/api/edc?status=bogus", token, nil)
		require.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("update and delete", func(t *testing.T) {
		code, env := doJSON(t, router, http.MethodPut, "/api/edc/EDC-JKT-001", token, map[string]any{
			"location": "Jakarta Selatan",
			"status":   "MAINTENANCE",
		})
		require.Equal(t, http.StatusOK, code)

		var updated terminalResponse
		require.NoError(t, json.Unmarshal(env.Data, &updated))
		require.Equal(t, "MAINTENANCE", updated.Status)
		require.Equal(t, "Jakarta Selatan", updated.Location)

		code, _ = doJSON(t, router, http.MethodDelete, "/api/edc/EDC-JKT-001", token, nil)
		require.Equal(t, http.StatusOK, code)

		code, _ = doJSON(t, router, http.MethodDelete, "/api/edc/EDC-JKT-001", token, nil)
		require.Equal(t, http.StatusNotFound, code)
	})
}

func TestEchoEndpoints(t *testing.T) {
	router := newTestRouter(t)
	token := signUp(t, router, "operator").Tokens.AccessToken

	code, _ := doJSON(t, router, http.MethodPost, "/api/edc", token, map[string]any{
		"terminalId": "EDC-JKT-001",
		"location":   "Jakarta",
		"status":     "ACTIVE",
	})
	require.Equal(t, http.StatusCreated, code)

	verifier, err := hmacsig.New(echoTestSecret, "HmacSHA256", 120*time.Second)
	require.NoError(t, err)

	postEcho := func(signature, terminalID string) (int, envelope) {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"terminalId": terminalID}))

		req := httptest.NewRequest(http.MethodPost, "/api/edc/echo", &buf)
		req.Header.Set("Content-Type", "application/json")
		if signature != "" {
			req.Header.Set(SignatureHeader, signature)
		}

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var env envelope
		if rec.Body.Len() > 0 {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		}
		return rec.Code, env
	}

	t.Run("missing signature header", func(t *testing.T) {
		code, _ := postEcho("", "EDC-JKT-001")
		require.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("invalid signature", func(t *testing.T) {
		code, env := postEcho("deadbeef", "EDC-JKT-001")
		require.Equal(t, http.StatusUnauthorized, code)
		require.Equal(t, "invalid signature", env.Message)
	})

	t.Run("valid signature records the echo", func(t *testing.T) {
		sig := verifier.Compute("EDC-JKT-001", time.Now().UTC())
		code, env := postEcho(sig, "EDC-JKT-001")
		require.Equal(t, http.StatusCreated, code)

		var echo echoResponse
		require.NoError(t, json.Unmarshal(env.Data, &echo))
		require.NotEmpty(t, echo.ID)
		require.Equal(t, "EDC-JKT-001", echo.TerminalID)
	})

	t.Run("unknown terminal", func(t *testing.T) {
		sig := verifier.Compute("EDC-JKT-999", time.Now().UTC())
		code, _ := postEcho(sig, "EDC-JKT-999")
		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("echo logs listing requires bearer", func(t *testing.T) {
		code, _ := doJSON(t, router, http.MethodGet, "/api/edc/echo-logs", "", nil)
		require.Equal(t, http.StatusUnauthorized, code)

		code, env := doJSON(t, router, http.MethodGet, "/api/edc/echo-logs?terminalId=EDC-JKT-001", token, nil)
		require.Equal(t, http.StatusOK, code)

		var page struct {
			Content       []echoResponse `json:"content"`
			TotalElements int64          `json:"totalElements"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &page))
		require.EqualValues(t, 1, page.TotalElements)
	})
}
