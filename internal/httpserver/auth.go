package httpserver

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"go-media-cache/internal/auth"
)

// requireAdmin checks the bearer token on cache mutation endpoints.
// Without a configured secret every request passes.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminSecret == "" {
			next.ServeHTTP(w, r)
			return
		}

		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || scheme != "Bearer" || token == "" {
			s.writeErrorResponse(w, "Missing bearer token", http.StatusUnauthorized)
			return
		}

		claims, err := auth.Verify(token, s.adminSecret)
		if err != nil {
			s.logger.Warn("Rejected admin request", zap.String("path", r.URL.Path), zap.Error(err))
			s.writeErrorResponse(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		s.logger.Debug("Admin request", zap.String("subject", claims.Subject), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}
