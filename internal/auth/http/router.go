package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/auth/service"
	"github.com/aussiebroadwan/taskboard/internal/auth/store"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"

	_ "github.com/aussiebroadwan/taskboard/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Accounts *service.AccountService
	Sessions *service.SessionService
	Resets   *service.PasswordResetService

	// Limiters builds the limiter behind each rate limit profile. Nil means
	// in-process limiting.
	Limiters      httpx.LimiterFactory
	StrictLimit   httpx.RateLimitConfig
	ModerateLimit httpx.RateLimitConfig
	LenientLimit  httpx.RateLimitConfig
	limiters      map[string]httpx.Limiter
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	corsOrigins []string,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		verifier:      verifier,
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		store:         st,
		logger:        logger,
		StrictLimit:   httpx.StrictLimit,
		ModerateLimit: httpx.ModerateLimit,
		LenientLimit:  httpx.LenientLimit,
		limiters:      make(map[string]httpx.Limiter),
	}

	// Request logging wraps everything so a recovered panic still gets its
	// access log line and request id.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
		httpx.SecureHeaders(),
		httpx.CORS(corsOrigins),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProfile()
	r.registerPasswordReset()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
	r.Mux.HandleFunc("/", notFound)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Taskboard Authentication Service API
//	@version		0.1.0
//	@description	Account, session and password reset API for the Taskboard frontend.
//	@description
//	@description				Access tokens live for 15 minutes and refresh tokens for 7 days. Refresh tokens are single use.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/taskboard
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:5000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// limit rate limits by key under config. Routes sharing a profile share its
// buckets, so hopping between credential endpoints does not reset the count.
func (r *Router) limit(config httpx.RateLimitConfig, key httpx.KeyExtractor) httpx.Middleware {
	l, ok := r.limiters[config.Name]
	if !ok {
		factory := r.Limiters
		if factory == nil {
			factory = httpx.LocalLimiters
		}
		l = factory(config)
		r.limiters[config.Name] = l
	}
	return httpx.RateLimit(l, config, key)
}

func (r *Router) byUser() httpx.KeyExtractor {
	return httpx.CompositeKeyExtractor(":", httpx.UserIDKeyExtractor, httpx.IPKeyExtractor)
}

func (r *Router) byIPAndEmail() httpx.KeyExtractor {
	return httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, httpx.JSONFieldKeyExtractor("email"))
}

// secured requires an access token and limits per user.
func (r *Router) secured(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		r.limit(r.ModerateLimit, r.byUser()),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Accounts: r.Accounts, Sessions: r.Sessions}

	// Credential endpoints - strict rate limit
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			r.limit(r.StrictLimit, httpx.IPKeyExtractor),
		),
	)
	// Login is limited by IP + email so one address cannot sweep many
	// accounts and one account is not locked out from every address
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			r.limit(r.StrictLimit, r.byIPAndEmail()),
		),
	)

	// POST /refresh - moderate rate limit by IP (no access token to key on)
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			r.limit(r.ModerateLimit, httpx.IPKeyExtractor),
		),
	)

	r.Mux.Handle("POST /api/auth/logout", r.secured(h.HandleLogout))
	r.Mux.Handle("POST /api/auth/logout-all", r.secured(h.HandleLogoutAll))
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{Accounts: r.Accounts, Sessions: r.Sessions}

	r.Mux.Handle("GET /api/auth/profile", r.secured(h.HandleGet))
	r.Mux.Handle("PUT /api/auth/profile", r.secured(h.HandleUpdate))
	r.Mux.Handle("POST /api/auth/change-email", r.secured(h.HandleChangeEmail))
	r.Mux.Handle("POST /api/auth/deactivate", r.secured(h.HandleDeactivate))
	r.Mux.Handle("GET /api/auth/sessions", r.secured(h.HandleSessions))
}

func (r *Router) registerPasswordReset() {
	h := &PasswordResetHandler{Resets: r.Resets}

	r.Mux.Handle("POST /api/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgot),
			r.limit(r.StrictLimit, r.byIPAndEmail()),
		),
	)
	r.Mux.Handle("POST /api/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			r.limit(r.StrictLimit, httpx.IPKeyExtractor),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Accounts: r.Accounts}
	r.Mux.Handle("GET /api/users", r.secured(h.ServeHTTP))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /api/health",
		httpx.Chain(HealthHandler(r.startTime, r.Accounts),
			r.limit(r.LenientLimit, httpx.IPKeyExtractor),
		),
	)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			r.limit(r.LenientLimit, httpx.IPKeyExtractor),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			r.limit(r.LenientLimit, httpx.IPKeyExtractor),
		),
	)
}
