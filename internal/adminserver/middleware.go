package adminserver

import (
	"net/http"
	"time"

	"github.com/absedag/consensus/internal/logging"
	"go.uber.org/zap"
)

// loggingMiddleware logs every admin request through the node's structured logger.
type loggingMiddleware struct {
	log logging.Logger
}

func newLoggingMiddleware(log logging.Logger) *loggingMiddleware {
	return &loggingMiddleware{log: log}
}

func (m *loggingMiddleware) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusCapturingWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		m.log.Info("admin request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapper.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// statusCapturingWriter wraps http.ResponseWriter to record the status code
// actually written, since http.ResponseWriter doesn't expose it directly.
type statusCapturingWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusCapturingWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
