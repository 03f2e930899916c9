package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/querysight/querysight/internal/logger"
)

const requestIDHeader = "X-Request-Id"

// requestID assigns a UUID to every request that does not carry one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one structured line per request and embeds a
// request-scoped logger in the context.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := log.With().
				Str("request_id", w.Header().Get(requestIDHeader)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()

			next.ServeHTTP(w, r.WithContext(reqLog.WithContext(r.Context())))

			reqLog.With().
				Str("duration", time.Since(start).String()).
				Logger().
				Info("request completed")
		})
	}
}
