package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Local login attempts by outcome.",
		},
		[]string{"outcome"}, // success, invalid, locked, inactive
	)

	magicLinksRequested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_magic_links_requested_total",
		Help: "Magic-link requests that issued a token.",
	})

	tokensConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_link_tokens_consumed_total",
			Help: "Ephemeral link tokens consumed by type.",
		},
		[]string{"type"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rate_limited_total",
			Help: "Requests rejected or disguised by a rate limiter.",
		},
		[]string{"limiter"}, // ip, email
	)
)

// Init registers the auth metrics with the default registry.
func Init() {
	prometheus.MustRegister(loginAttempts, magicLinksRequested, tokensConsumed, rateLimited)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// LoginAttempt records a local login attempt outcome.
func LoginAttempt(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

// MagicLinkRequested records an issued magic-link token.
func MagicLinkRequested() {
	magicLinksRequested.Inc()
}

// TokenConsumed records a consumed link token.
func TokenConsumed(tokenType string) {
	tokensConsumed.WithLabelValues(tokenType).Inc()
}

// RateLimited records a limiter rejection.
func RateLimited(limiter string) {
	rateLimited.WithLabelValues(limiter).Inc()
}
