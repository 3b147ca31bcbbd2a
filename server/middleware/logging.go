package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/fluxkit/logger"
)

var quietPaths = map[string]bool{
	"/health": true,
	"/info":   true,
}

// RequestLogger logs each finished request with its status and duration.
// Health and info probes are not logged. For stream endpoints the entry is
// written when the stream ends, so duration is the stream lifetime.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := map[string]interface{}{
				"method":             r.Method,
				"path":               r.URL.Path,
				"status":             sw.status,
				"bytes":              sw.written,
				logger.FieldDuration: time.Since(start).Milliseconds(),
			}
			if q := r.URL.RawQuery; q != "" {
				fields["query"] = q
			}
			logByStatus(log.WithContext(r.Context()), fields, sw.status)
		})
	}
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request completed", fields)
	case status >= http.StatusBadRequest:
		log.Warn("request completed", fields)
	default:
		log.Debug("request completed", fields)
	}
}
