package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotelink/quotelink/internal/api"
	"github.com/quotelink/quotelink/internal/auth"
	"github.com/quotelink/quotelink/internal/config"
	"github.com/quotelink/quotelink/internal/linktoken"
	"github.com/quotelink/quotelink/internal/mail"
	"github.com/quotelink/quotelink/internal/metrics"
	"github.com/quotelink/quotelink/internal/quote"
	"github.com/quotelink/quotelink/internal/ratelimit"
	"github.com/quotelink/quotelink/internal/supplier"
	"github.com/quotelink/quotelink/internal/sweeper"
	"github.com/quotelink/quotelink/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)
	metrics.Init()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Warn("database unreachable at startup; health will report degraded", "error", err)
	}

	users := user.NewRepository(pool)
	suppliers := supplier.NewRepository(pool)
	tokens := linktoken.NewRepository(pool)
	quotes := quote.NewRepository(pool)

	rateStore, memRates := buildRateStore(cfg)

	var mailer mail.Mailer
	if cfg.SMTPAddr != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		slog.Warn("SMTP_ADDR not set; outgoing mail will be logged only")
		mailer = mail.NewLogMailer()
	}

	attempts := auth.NewMemoryAttemptStore()
	sessions := auth.NewSessionManager(cfg.SessionSecret, strings.HasPrefix(cfg.AppBaseURL, "https://"))
	identities := auth.NewIdentityService(users, suppliers)
	localAuth := auth.NewLocalAuthenticator(users, attempts)
	magic := auth.NewMagicLinkService(suppliers, users, tokens, mailer, cfg.AppBaseURL, cfg.BcryptCost)
	scoped := auth.NewScopedAuthenticator(quotes)

	var oidc *auth.ClaimsVerifier
	if cfg.OIDCIssuer != "" {
		oidc, err = auth.NewClaimsVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			slog.Warn("OIDC provider initialization failed; claims login disabled", "error", err)
			oidc = nil
		}
	}

	router := api.NewRouter(api.RouterDeps{
		Sessions:   sessions,
		Identities: identities,
		LocalAuth:  localAuth,
		Magic:      magic,
		Scoped:     scoped,
		OIDC:       oidc,
		Users:      users,
		Suppliers:  suppliers,
		Quotes:     quotes,
		Mailer:     mailer,
		RateStore:  rateStore,
		DB:         pool,
		BaseURL:    cfg.AppBaseURL,
		Version:    cfg.Version,
		BcryptCost: cfg.BcryptCost,
	})

	sw := sweeper.New(tokens, attempts, memRates)
	if err := sw.Start(); err != nil {
		slog.Error("failed to start sweeper", "error", err)
		os.Exit(1)
	}
	defer sw.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting quotelink server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// buildRateStore returns the configured rate-limit store. The second value
// is non-nil only for the in-memory store, which needs periodic sweeping.
func buildRateStore(cfg *config.Config) (ratelimit.Store, *ratelimit.MemoryStore) {
	if cfg.RedisURL == "" {
		mem := ratelimit.NewMemoryStore()
		return mem, mem
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Warn("invalid REDIS_URL; falling back to in-memory rate limiting", "error", err)
		mem := ratelimit.NewMemoryStore()
		return mem, mem
	}

	client := redis.NewClient(opt)
	slog.Info("rate limiting backed by redis", "addr", opt.Addr)
	return ratelimit.NewRedisStore(client), nil
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
