// Package health expone /healthz y /readyz.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/idlink/internal/observability/logger"
)

// Pinger es un componente verificable (cache, base de datos).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller maneja los health checks.
type Controller struct {
	components map[string]Pinger
	version    string
}

func NewController(version string, components map[string]Pinger) *Controller {
	return &Controller{components: components, version: version}
}

func (c *Controller) Register(r chi.Router) {
	r.Get("/healthz", c.Healthz)
	r.Get("/readyz", c.Readyz)
}

// Healthz: el proceso responde.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type readyResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components"`
}

// Readyz: todos los componentes responden al ping.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := readyResponse{Status: "ready", Version: c.version, Components: map[string]string{}}
	for name, p := range c.components {
		if err := p.Ping(ctx); err != nil {
			logger.From(ctx).Warn("readiness check failed", logger.Component(name), logger.Err(err))
			resp.Components[name] = "down"
			resp.Status = "unavailable"
			continue
		}
		resp.Components[name] = "up"
	}
	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
