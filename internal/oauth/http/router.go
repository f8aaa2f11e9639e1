package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lagoonid/oauthd/internal/oauth/metrics"
	"github.com/lagoonid/oauthd/internal/oauth/service"
	"github.com/lagoonid/oauthd/internal/oauth/store"
	"github.com/lagoonid/oauthd/pkg/httpx"
	"github.com/lagoonid/oauthd/pkg/slogx"

	_ "github.com/lagoonid/oauthd/api/oauth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	pingers      []Pinger

	Clients     store.Clients
	Assertions  *service.AssertionService
	CodeService *service.CodeService
	Tokens      *service.TokenService
	Introspect  *service.IntrospectService
	Revocations *service.RevocationService
	KeyData     *service.KeyDataService
}

func NewRouter(buildVersion string, logger *slog.Logger, pingers ...Pinger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		pingers:      pingers,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			oauthd API
//	@version		0.1.0
//	@description	OAuth token service for a federated identity provider: assertion verification, authorization codes with PKCE, token grants, introspection, revocation and scoped key data.
//
//	@license.name	MPL-2.0
//	@license.url	https://www.mozilla.org/en-US/MPL/2.0/
//
//	@host			localhost:9010
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth() {
	// POST /v1/authorization - strict limit (assertion verification)
	authorizationHandler := &AuthorizationHandler{
		Assertions:  r.Assertions,
		CodeService: r.CodeService,
	}
	r.Mux.Handle("POST /v1/authorization",
		httpx.Chain(authorizationHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /v1/token - strict limit (credential-bearing, all grant types)
	tokenHandler := &TokenHandler{TokenService: r.Tokens}
	r.Mux.Handle("POST /v1/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /v1/introspect - moderate limit (relying parties poll this)
	introspectHandler := &IntrospectHandler{Introspector: r.Introspect}
	r.Mux.Handle("POST /v1/introspect",
		httpx.Chain(introspectHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /v1/destroy - moderate limit
	destroyHandler := &DestroyHandler{Revocations: r.Revocations}
	r.Mux.Handle("POST /v1/destroy",
		httpx.Chain(destroyHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Authorized-clients listing and revocation, assertion-authenticated
	authorizedClientsHandler := &AuthorizedClientsHandler{
		Assertions:  r.Assertions,
		Revocations: r.Revocations,
	}
	r.Mux.Handle("POST /v1/authorized-clients",
		httpx.Chain(http.HandlerFunc(authorizedClientsHandler.HandleList),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/authorized-clients/destroy",
		httpx.Chain(http.HandlerFunc(authorizedClientsHandler.HandleDestroy),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /v1/client/{client_id} - public metadata, lenient limit
	clientGetHandler := &ClientGetHandler{Clients: r.Clients}
	r.Mux.Handle("GET /v1/client/{client_id}",
		httpx.Chain(clientGetHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /v1/key-data - strict limit (assertion verification)
	keyDataHandler := &KeyDataHandler{
		Assertions: r.Assertions,
		KeyData:    r.KeyData,
	}
	r.Mux.Handle("POST /v1/key-data",
		httpx.Chain(keyDataHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
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
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.pingers...),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", metrics.Handler())
}
