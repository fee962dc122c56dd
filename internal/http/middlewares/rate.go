package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"time"

	httperrors "github.com/dropDatabas3/idlink/internal/http/errors"
	"github.com/dropDatabas3/idlink/internal/metrics"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
	"github.com/dropDatabas3/idlink/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPRateKey limita por la IP de la conexión. Los headers del cliente no cuentan.
func IPRateKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ProxyIPRateKey limita por Client-IP / X-Forwarded-For. Solo detrás de un proxy confiable.
func ProxyIPRateKey(r *http.Request) string { return ClientIP(r) }

// RateLimitConfig configura WithRateLimit.
type RateLimitConfig struct {
	Limiter rate.Limiter
	KeyFunc RateKeyFunc
	Route   string // label para métricas
	Metrics *metrics.Metrics
	// TrustProxy usa ProxyIPRateKey cuando KeyFunc es nil.
	TrustProxy bool
}

// WithRateLimit rechaza con 429 cuando la clave excede el límite.
// Si el limiter falla, deja pasar el request.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPRateKey
		if cfg.TrustProxy {
			cfg.KeyFunc = ProxyIPRateKey
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.Route + "|" + cfg.KeyFunc(r)
			res, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter error", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				}
				cfg.Metrics.RateLimitHit(cfg.Route)
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if res.WindowTTL > 0 {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.WindowTTL).Unix(), 10))
			}
			next.ServeHTTP(w, r)
		})
	}
}
