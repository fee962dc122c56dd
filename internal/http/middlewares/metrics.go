package middlewares

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/idlink/internal/metrics"
)

// WithMetrics instrumenta requests (contador, latencia, inflight). route es el label
// del path, fijo por ruta para no explotar la cardinalidad.
func WithMetrics(m *metrics.Metrics, route string) Middleware {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method := strings.ToUpper(r.Method)
			m.HTTPInflight.WithLabelValues(method, route).Inc()
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				m.HTTPInflight.WithLabelValues(method, route).Dec()
				m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
				m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
