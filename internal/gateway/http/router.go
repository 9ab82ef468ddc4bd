package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/crmconnect/internal/gateway/service"
	"github.com/aussiebroadwan/crmconnect/internal/gateway/store"
	"github.com/aussiebroadwan/crmconnect/pkg/connectsdk"
	"github.com/aussiebroadwan/crmconnect/pkg/httpx"
	"github.com/aussiebroadwan/crmconnect/pkg/slogx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/aussiebroadwan/crmconnect/api/gateway" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	IntegrationService *service.IntegrationService
	TokenService       *service.TokenService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		traceMiddleware,
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func traceMiddleware(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "gateway",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func (r *Router) ApplyRoutes() {
	r.registerIntegration()
	r.registerTokens()
	r.registerSystem()

	r.Mux.Handle("/swagger/",
		httpx.Chain(httpSwagger.Handler(), httpx.RateLimitByIP(httpx.PublicLimit)),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			crmconnect Integration Gateway API
//	@version		0.1.0
//	@description	Backend for the HubSpot connect flow: issues authorization URLs, exchanges codes and keeps one token blob per user.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/crmconnect
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8000
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerIntegration() {
	h := &IntegrationHandler{Service: r.IntegrationService}
	base := connectsdk.DefaultIntegrationPath

	r.Mux.Handle("POST "+base+"/authorize",
		httpx.Chain(http.HandlerFunc(h.HandleAuthorize),
			httpx.RateLimitByIP(httpx.StandardLimit),
		),
	)

	// Both paths hit the provider token endpoint; they share one bucket.
	callback := httpx.Chain(http.HandlerFunc(h.HandleCallback),
		httpx.RateLimitByIP(httpx.TokenLimit),
	)
	r.Mux.Handle("GET "+base+"/oauth2callback", callback)
	r.Mux.Handle("GET /oauth2callback", callback)

	r.Mux.Handle("GET "+base+"/items",
		httpx.Chain(http.HandlerFunc(h.HandleItems),
			httpx.RateLimitByIPAndQuery(httpx.StandardLimit, "user_id"),
		),
	)
}

func (r *Router) registerTokens() {
	h := &TokensHandler{Service: r.TokenService}

	r.Mux.Handle("POST /save_tokens",
		httpx.Chain(http.HandlerFunc(h.HandleSave),
			httpx.RateLimitByIP(httpx.TokenLimit),
		),
	)
	r.Mux.Handle("GET /get_tokens",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIPAndQuery(httpx.TokenLimit, "user_id"),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
