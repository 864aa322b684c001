package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tapstone/edcd/internal/edc/service"
	"github.com/tapstone/edcd/internal/edc/store"
	"github.com/tapstone/edcd/pkg/httpx"
	"github.com/tapstone/edcd/pkg/jwtx"
	"github.com/tapstone/edcd/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	AuthService     *service.AuthService
	TerminalService *service.TerminalService
	EchoService     *service.EchoService
}

func NewRouter(
	codec *jwtx.Codec,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTerminals()
	r.registerEcho()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// identity resolves bearer tokens into request identities. It never rejects
// a request on its own; RequireAuth does that at protected routes.
func (r *Router) identity() httpx.Middleware {
	return httpx.IdentityMiddleware(r.codec, r.AuthService)
}

func (r *Router) registerAuth() {
	handler := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints take the strict limit: they are the brute-force
	// surface of the service.
	r.Mux.Handle("POST /api/auth/sign-up",
		httpx.Chain(http.HandlerFunc(handler.HandleSignUp),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/sign-in",
		httpx.Chain(http.HandlerFunc(handler.HandleSignIn),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(handler.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/sign-out",
		httpx.Chain(http.HandlerFunc(handler.HandleSignOut),
			r.identity(),
			httpx.RequireAuth(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerTerminals() {
	handler := &TerminalHandler{TerminalService: r.TerminalService}

	protected := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h,
			r.identity(),
			httpx.RequireAuth(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /api/edc", protected(handler.HandleCreate))
	r.Mux.Handle("GET /api/edc", protected(handler.HandleList))
	r.Mux.Handle("GET /api/edc/{terminalId}", protected(handler.HandleGet))
	r.Mux.Handle("PUT /api/edc/{terminalId}", protected(handler.HandleUpdate))
	r.Mux.Handle("DELETE /api/edc/{terminalId}", protected(handler.HandleDelete))
}

func (r *Router) registerEcho() {
	handler := &EchoHandler{EchoService: r.EchoService}

	// Echo callbacks authenticate with an HMAC signature, not a bearer
	// token. Terminals share an egress IP behind carrier NAT, so the limit
	// is lenient.
	r.Mux.Handle("POST /api/edc/echo",
		httpx.Chain(http.HandlerFunc(handler.HandleEcho),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /api/edc/echo-logs",
		httpx.Chain(http.HandlerFunc(handler.HandleListLogs),
			r.identity(),
			httpx.RequireAuth(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
