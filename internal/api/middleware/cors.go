package middleware

import (
	"net/http"

	"github.com/yunhanz/storymap-api/internal/api/shared"
)

const (
	allowedMethods = "POST, GET, OPTIONS"
	allowedHeaders = "Content-Type"
)

// CORS builds a middleware enforcing the configured origin allowlist. An
// entry of "*" admits every origin. Requests without an Origin header are
// never rejected; they get a wildcard allow header only when "*" is
// configured. Disallowed origins receive 403 rather than a silent missing
// header so browser consoles show an actionable error.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[o] = struct{}{}
	}

	resolve := func(origin string) string {
		if origin == "" {
			if allowAll {
				return "*"
			}
			return ""
		}
		if allowAll {
			return origin
		}
		if _, ok := allowed[origin]; ok {
			return origin
		}
		return ""
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowOrigin := resolve(origin)

			if origin != "" && allowOrigin == "" {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				shared.RespondWithError(w, r, http.StatusForbidden, "origin not allowed")
				return
			}

			if allowOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			}
			w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
