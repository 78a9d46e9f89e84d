package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/quotelink/quotelink/internal/api/response"
	"github.com/quotelink/quotelink/internal/metrics"
	"github.com/quotelink/quotelink/internal/ratelimit"
)

// RateLimitIP returns middleware enforcing the given limiter per client IP.
// Rejections are honest here: 429 with a Retry-After header. The email-keyed
// limiter is not middleware because its rejection must impersonate the
// success response; see the magic-link handler.
func RateLimitIP(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			decision := limiter.Check(r.Context(), ClientIP(r))
			if !decision.Allowed {
				metrics.RateLimited("ip")
				retryAfter := int(decision.RetryAfter.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				response.Err(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the originating client IP, preferring the first entry
// of X-Forwarded-For when a proxy sits in front.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, ok := strings.Cut(xff, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
