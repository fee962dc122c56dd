// Package router arma el http.Handler del servicio con chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/http/controllers/health"
	"github.com/dropDatabas3/idlink/internal/http/controllers/login"
	httperrors "github.com/dropDatabas3/idlink/internal/http/errors"
	mw "github.com/dropDatabas3/idlink/internal/http/middlewares"
	"github.com/dropDatabas3/idlink/internal/metrics"
	"github.com/dropDatabas3/idlink/internal/rate"
)

// Deps contiene los controllers y la infraestructura de middlewares.
type Deps struct {
	Login       *login.Controller
	Health      *health.Controller
	Metrics     *metrics.Metrics // opcional
	MetricsPath string
	Limiter     rate.Limiter // opcional
	TrustProxy  bool         // clave de rate por headers de proxy
	Logger      *zap.Logger
}

// New registra todas las rutas.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// health: sin logging (muy frecuentes)
	if d.Health != nil {
		r.Group(func(r chi.Router) {
			r.Use(mw.WithRecover(), mw.WithRequestID())
			d.Health.Register(r)
		})
	}

	if d.Login != nil {
		r.Group(func(r chi.Router) {
			r.Use(
				mw.WithRecover(),
				mw.WithRequestID(),
				mw.WithClientIP(),
				mw.WithLogging(d.Logger),
				mw.WithSecurityHeaders(),
				mw.WithNoStore(),
				mw.WithMetrics(d.Metrics, "login"),
				mw.WithRateLimit(mw.RateLimitConfig{Limiter: d.Limiter, Route: "login", Metrics: d.Metrics, TrustProxy: d.TrustProxy}),
			)
			d.Login.Register(r)
		})
	}

	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, d.Metrics.Handler())
	}
	return r
}
