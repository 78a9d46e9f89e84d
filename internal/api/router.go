package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/quotelink/quotelink/internal/api/handler"
	"github.com/quotelink/quotelink/internal/api/middleware"
	"github.com/quotelink/quotelink/internal/auth"
	"github.com/quotelink/quotelink/internal/mail"
	"github.com/quotelink/quotelink/internal/metrics"
	"github.com/quotelink/quotelink/internal/quote"
	"github.com/quotelink/quotelink/internal/ratelimit"
	"github.com/quotelink/quotelink/internal/supplier"
	"github.com/quotelink/quotelink/internal/user"
)

// Rate-limit policies for the magic-link request endpoint.
const (
	ipLimitMax       = 10
	ipLimitWindow    = 15 * time.Minute
	emailLimitMax    = 5
	emailLimitWindow = 15 * time.Minute
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Sessions   *auth.SessionManager
	Identities *auth.IdentityService
	LocalAuth  *auth.LocalAuthenticator
	Magic      *auth.MagicLinkService
	Scoped     *auth.ScopedAuthenticator
	OIDC       *auth.ClaimsVerifier // nil disables the OIDC routes' happy path
	Users      user.Repository
	Suppliers  supplier.Repository
	Quotes     quote.Repository
	Mailer     mail.Mailer
	RateStore  ratelimit.Store
	DB         handler.DBPinger
	BaseURL    string
	Version    string
	BcryptCost int
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	ipLimiter := ratelimit.NewLimiter(deps.RateStore, "ip", ipLimitMax, ipLimitWindow)
	emailLimiter := ratelimit.NewLimiter(deps.RateStore, "email", emailLimitMax, emailLimitWindow)

	requireSession := middleware.Auth(deps.Sessions, deps.Identities)
	requireStaff := middleware.RequireRole(user.RoleAdmin, user.RoleProcurement)
	requireAdmin := middleware.RequireRole(user.RoleAdmin)

	healthHandler := handler.NewHealthHandler(deps.DB, deps.Version)
	localHandler := handler.NewLocalAuthHandler(deps.LocalAuth, deps.Sessions, deps.Users, deps.BcryptCost)
	authHandler := handler.NewAuthHandler(deps.Magic, deps.Identities, deps.Sessions, deps.Users, emailLimiter, deps.OIDC)
	publicHandler := handler.NewPublicHandler(deps.Quotes, deps.Suppliers)
	requestHandler := handler.NewQuoteRequestHandler(deps.Quotes, deps.Suppliers, deps.Mailer, deps.BaseURL)
	supplierHandler := handler.NewSupplierHandler(deps.Suppliers)
	userHandler := handler.NewUserHandler(deps.Users, deps.Magic)
	portalHandler := handler.NewSupplierPortalHandler(deps.Quotes)

	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/local/login", localHandler.Login)
		r.With(requireSession).Post("/local/logout", localHandler.Logout)
		r.With(requireSession, requireAdmin).Post("/local/set-password", localHandler.SetPassword)

		r.With(middleware.RateLimitIP(ipLimiter)).Post("/auth/request-magic-link", authHandler.RequestMagicLink)
		r.Get("/auth/verify-magic-link", authHandler.VerifyMagicLink)
		r.Post("/auth/setup-password", authHandler.SetupPassword)
		r.With(requireSession).Get("/auth/user", authHandler.Me)

		r.Get("/login/oidc", authHandler.OIDCLogin)
		r.Get("/callback", authHandler.OIDCCallback)

		r.Route("/public/quote-requests/{id}", func(r chi.Router) {
			r.Use(middleware.ScopedToken(deps.Scoped))
			r.Get("/", publicHandler.GetQuoteRequest)
			r.Post("/submit-quote", publicHandler.SubmitQuote)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSession, requireStaff)

			r.Route("/quote-requests", func(r chi.Router) {
				r.Post("/", requestHandler.Create)
				r.Get("/", requestHandler.List)
				r.Get("/{id}", requestHandler.GetByID)
				r.Post("/{id}/invite", requestHandler.Invite)
				r.Get("/{id}/quotes", requestHandler.ListQuotes)
			})
			r.Post("/quotes/{id}/approve", requestHandler.ApproveQuote)

			r.Route("/suppliers", func(r chi.Router) {
				r.Post("/", supplierHandler.Create)
				r.Get("/", supplierHandler.List)
				r.Get("/{id}", supplierHandler.GetByID)
				r.Patch("/{id}", supplierHandler.Update)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSession, requireAdmin)
			r.Get("/users", userHandler.List)
			r.Patch("/users/{id}", userHandler.Update)
			r.Post("/users/{id}/setup-password-link", userHandler.SetupPasswordLink)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSession, middleware.RequireSupplier(deps.Suppliers, deps.Quotes))
			r.Get("/supplier/quote-requests", portalHandler.ListQuoteRequests)
		})
	})

	return r
}
