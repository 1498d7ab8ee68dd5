package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const apiKeyHeader = "x-api-key"

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// apiKeyMiddleware rejects requests without the configured x-api-key.
func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	want := []byte(s.cfg.APIKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(apiKeyHeader)
		if got == "" {
			s.rejectAuth(w, "missing", "API key is required")
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			s.rejectAuth(w, "invalid", "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rejectAuth(w http.ResponseWriter, reason, msg string) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.AuthRejected.WithLabelValues(reason).Inc()
	}
	writeJSON(w, http.StatusForbidden, errorBody{Error: msg})
}
