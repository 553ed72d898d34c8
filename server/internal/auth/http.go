package auth

import (
	"net/http"
	"strings"
)

// Middleware returns HTTP middleware enforcing the same API key as
// APIKeyInterceptor. Requests whose path starts with one of the open prefixes
// (health checks, metrics scrapes) and CORS preflights are never checked.
func Middleware(mode, header, key string, open ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled(mode, key) || r.Method == http.MethodOptions || isOpen(r.URL.Path, open) {
				next.ServeHTTP(w, r)
				return
			}
			if !matches(r.Header.Get(header), key) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isOpen(path string, open []string) bool {
	for _, p := range open {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
