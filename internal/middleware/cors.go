// Package middleware provides HTTP middleware for the survey API gateway.
package middleware

import (
	"net/http"
	"strings"

	"github.com/maternal-survey/survey-api/internal/httputil"
	"github.com/maternal-survey/survey-api/internal/logging"
	"github.com/maternal-survey/survey-api/internal/metrics"
)

// OriginPolicy decides whether a cross-origin request is admitted. The
// allow-list is copied on construction and never mutated afterwards.
type OriginPolicy struct {
	allowedOrigins []string
}

// NewOriginPolicy creates a policy over the given allow-list.
func NewOriginPolicy(allowedOrigins []string) *OriginPolicy {
	return &OriginPolicy{allowedOrigins: append([]string(nil), allowedOrigins...)}
}

// Allowed reports whether a request declaring the given origin is admitted.
// Requests without an Origin header (same-origin or non-browser clients) are
// always admitted. A declared origin is admitted if it is in the allow-list
// verbatim, or if stripping a single trailing slash from it yields a list
// entry. List entries themselves are never normalized.
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" {
		return true
	}
	stripped := strings.TrimSuffix(origin, "/")
	for _, allowed := range p.allowedOrigins {
		if origin == allowed || stripped == allowed {
			return true
		}
	}
	return false
}

// CORSMiddleware applies the origin admission policy and answers preflights.
type CORSMiddleware struct {
	policy *OriginPolicy
	logger *logging.Logger
}

// NewCORSMiddleware creates the CORS middleware over an allow-list.
func NewCORSMiddleware(allowedOrigins []string, logger *logging.Logger) *CORSMiddleware {
	return &CORSMiddleware{policy: NewOriginPolicy(allowedOrigins), logger: logger}
}

// Policy exposes the underlying admission policy.
func (m *CORSMiddleware) Policy() *OriginPolicy { return m.policy }

// Handler returns the CORS middleware handler. Denied origins are rejected
// through the terminal error handler with a distinguishable reason; allowed
// preflights are answered with 200 and never reach the route handlers.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if !m.policy.Allowed(origin) {
			metrics.RecordCORSRejection()
			m.logger.ForRequest(r.Context()).WithField("origin", origin).Warn("origin denied by CORS policy")
			httputil.WriteError(w, r, m.logger, httputil.ErrCORSOrigin)
			return
		}

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		// Legacy-browser-compatible preflight success code.
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
