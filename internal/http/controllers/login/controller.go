// Package login expone /login, /login/url y el callback del proveedor.
package login

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/metrics"
	"github.com/dropDatabas3/idlink/internal/oauth"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
	"github.com/dropDatabas3/idlink/internal/social"
)

const DefaultRedirectCookie = "idlink_redirect_to"

// AuthorizeBuilder arma la URL de autorización y deja el state pendiente.
type AuthorizeBuilder interface {
	Build(ctx context.Context, rc *oauth.RequestCache) (*oauth.AuthorizationRequest, error)
}

// Config del controller.
type Config struct {
	Enabled        bool
	StateTTL       time.Duration // vida de la cookie de redirect_to
	RedirectCookie string
	SecureCookies  bool
	CallbackPath   string
}

// Deps del controller.
type Deps struct {
	Builder  AuthorizeBuilder
	Callback social.CallbackService
	Redirect *social.RedirectPolicy
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Config   Config
}

type Controller struct {
	builder  AuthorizeBuilder
	callback social.CallbackService
	redirect *social.RedirectPolicy
	metrics  *metrics.Metrics
	log      *zap.Logger
	cfg      Config
}

func NewController(d Deps) *Controller {
	if d.Config.RedirectCookie == "" {
		d.Config.RedirectCookie = DefaultRedirectCookie
	}
	if d.Config.StateTTL <= 0 {
		d.Config.StateTTL = oauth.DefaultStateTTL
	}
	if d.Config.CallbackPath == "" {
		d.Config.CallbackPath = "/oauth/callback"
	}
	if d.Redirect == nil {
		d.Redirect = social.NewRedirectPolicy("", "/", nil)
	}
	if d.Logger == nil {
		d.Logger = logger.L()
	}
	return &Controller{
		builder:  d.Builder,
		callback: d.Callback,
		redirect: d.Redirect,
		metrics:  d.Metrics,
		log:      d.Logger.With(logger.Layer("controller"), logger.Component("login")),
		cfg:      d.Config,
	}
}

// Register monta las rutas en r. Los middlewares se aplican afuera (router).
func (c *Controller) Register(r chi.Router) {
	r.Get("/login", c.Start)
	r.Get("/login/url", c.LoginURL)
	r.Get(c.cfg.CallbackPath, c.Callback)
}
