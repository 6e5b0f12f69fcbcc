package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// NewRequestLogger logs each incoming request and how long it took to
// handle. The ResponseWriter is deliberately not wrapped: the websocket
// endpoint hijacks the connection, which a wrapper would break, so the
// completion record carries elapsed time rather than a status code.
func NewRequestLogger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMeta, ok := ReqMetadataFrom(r.Context())
			var ip string
			if ok {
				ip = reqMeta.IP
			}

			logger.Info("Incoming HTTP request",
				slog.String("method", r.Method),
				slog.String("uri", r.RequestURI),
				slog.String("ip", ip),
			)

			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("Request handled",
				slog.String("method", r.Method),
				slog.String("uri", r.RequestURI),
				slog.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
