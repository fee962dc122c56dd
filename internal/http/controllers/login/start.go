package login

import (
	"encoding/json"
	"net/http"

	httperrors "github.com/dropDatabas3/idlink/internal/http/errors"
	"github.com/dropDatabas3/idlink/internal/oauth"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
	"github.com/dropDatabas3/idlink/internal/session"
)

// begin arma la autorización del request y guarda el redirect_to saneado.
func (c *Controller) begin(w http.ResponseWriter, r *http.Request) (*oauth.AuthorizationRequest, bool) {
	if !c.cfg.Enabled {
		writeFailure(w, r, httperrors.ErrLoginDisabled, c.redirect.Default)
		return nil, false
	}
	req, err := c.builder.Build(r.Context(), oauth.NewRequestCache())
	if err != nil {
		logger.FromOr(r.Context(), c.log).Error("authorize url failed", logger.Op("login.begin"), logger.Err(err))
		writeFailure(w, r, httperrors.ErrServiceUnavailable.WithCause(err), c.redirect.Default)
		return nil, false
	}
	if rt := r.URL.Query().Get("redirect_to"); rt != "" {
		http.SetCookie(w, session.BuildCookie(c.cfg.RedirectCookie, c.redirect.Sanitize(rt), "", "lax",
			c.cfg.SecureCookies, c.cfg.StateTTL, nowFunc()))
	}
	c.metrics.LoginStarted()
	return req, true
}

// Start maneja GET /login: 302 al authorize endpoint.
func (c *Controller) Start(w http.ResponseWriter, r *http.Request) {
	req, ok := c.begin(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, req.URL, http.StatusFound)
}

// LoginURL maneja GET /login/url: {"url": "..."} para botones que arman el link del lado cliente.
func (c *Controller) LoginURL(w http.ResponseWriter, r *http.Request) {
	req, ok := c.begin(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]string{"url": req.URL})
}
