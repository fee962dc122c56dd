// Package metrics define los collectors Prometheus del servicio.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes de un intento de login.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics agrupa los collectors. Un nil *Metrics es válido y no registra nada.
type Metrics struct {
	gatherer prometheus.Gatherer

	LoginAttempts *prometheus.CounterVec
	LoginStarts   prometheus.Counter
	StepDuration  *prometheus.HistogramVec
	RateLimited   *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	HTTPInflight  *prometheus.GaugeVec
	UsersCreated  prometheus.Counter
	PendingPurged prometheus.Counter
	AuditPruned   prometheus.Counter
}

// New crea y registra los collectors en reg. Con reg nil usa un registry propio.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idlink_login_attempts_total",
			Help: "Intentos de login federado por resultado y motivo",
		}, []string{"outcome", "reason"}),
		LoginStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "idlink_login_starts_total",
			Help: "Redirecciones emitidas hacia el proveedor",
		}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idlink_provider_call_duration_seconds",
			Help:    "Latencia de las llamadas al proveedor",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"endpoint"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idlink_rate_limited_total",
			Help: "Requests rechazadas por rate limit",
		}, []string{"route"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		HTTPInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"}),
		UsersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "idlink_users_provisioned_total",
			Help: "Usuarios locales creados desde el proveedor",
		}),
		PendingPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "idlink_pending_states_purged_total",
			Help: "Autorizaciones pendientes purgadas",
		}),
		AuditPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "idlink_audit_events_pruned_total",
			Help: "Eventos de auditoría borrados por retención",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.LoginAttempts, m.LoginStarts, m.StepDuration, m.RateLimited,
		m.HTTPRequests, m.HTTPDuration, m.HTTPInflight,
		m.UsersCreated, m.PendingPurged, m.AuditPruned,
	} {
		if err := Register(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register registra el collector, ignorando duplicados.
func Register(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// Handler expone /metrics del registry propio.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) LoginOutcome(outcome, reason string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) LoginStarted() {
	if m == nil {
		return
	}
	m.LoginStarts.Inc()
}

func (m *Metrics) ObserveProviderCall(endpoint string, d time.Duration) {
	if m == nil {
		return
	}
	m.StepDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) RateLimitHit(route string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(route).Inc()
}

func (m *Metrics) UserProvisioned() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

func (m *Metrics) Purged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PendingPurged.Add(float64(n))
}

func (m *Metrics) Pruned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.AuditPruned.Add(float64(n))
}
