package http

import (
	"net/http"
	"strings"
	"time"

	"carrental-backend/internal/logger"
	"carrental-backend/internal/security"
)

// ServiceAuthMiddleware protects internal routes with a signed service token.
func ServiceAuthMiddleware(tokens security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{
					Status:  http.StatusUnauthorized,
					Error:   http.StatusText(http.StatusUnauthorized),
					Message: "missing bearer token",
					Path:    r.URL.Path,
				})
				return
			}

			claims, err := tokens.ValidateServiceToken(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{
					Status:  http.StatusUnauthorized,
					Error:   http.StatusText(http.StatusUnauthorized),
					Message: "invalid service token",
					Path:    r.URL.Path,
				})
				return
			}

			logger.Debug("Internal request authenticated",
				"service", claims.Service, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware records every request with its status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("Request handled",
			"http_method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
