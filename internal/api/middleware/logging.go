package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Logger returns a zerolog request logger. Server faults log at error level
// so they surface in log search without a metrics dashboard; everything else
// logs at info.
func Logger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				evt := logger.Info()
				if ww.Status() >= http.StatusInternalServerError {
					evt = logger.Error()
				}
				evt.
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("latency", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("remote_ip", RealIP(r)).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
