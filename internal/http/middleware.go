package httpapi

import (
	"net/http"
	"strings"

	"labcatalog/internal/auth"

	"go.uber.org/zap"
)

const authCheckPath = "/api/auth-check"

// Chain wraps h so that the first middleware is the outermost.
func Chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// Authenticate attaches the verified principal to every /api/ request and
// rejects unauthenticated ones with 401. /api/auth-check is answered either
// way; paths outside /api/ are not gated.
func Authenticate(gate auth.Gate, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}
			p, err := gate.Authenticate(r)
			if err != nil {
				if r.URL.Path == authCheckPath {
					next.ServeHTTP(w, r)
					return
				}
				logger.Debug("unauthenticated request", zap.String("path", r.URL.Path), zap.Error(err))
				writeJSON(w, http.StatusUnauthorized, Fail("authentication required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}
