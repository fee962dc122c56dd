// Package app arma el servicio de login a partir de la configuración.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/audit"
	"github.com/dropDatabas3/idlink/internal/cache"
	"github.com/dropDatabas3/idlink/internal/config"
	"github.com/dropDatabas3/idlink/internal/http/controllers/health"
	"github.com/dropDatabas3/idlink/internal/http/controllers/login"
	"github.com/dropDatabas3/idlink/internal/http/router"
	"github.com/dropDatabas3/idlink/internal/identity"
	"github.com/dropDatabas3/idlink/internal/metrics"
	"github.com/dropDatabas3/idlink/internal/notify"
	"github.com/dropDatabas3/idlink/internal/oauth"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
	"github.com/dropDatabas3/idlink/internal/rate"
	"github.com/dropDatabas3/idlink/internal/security/password"
	"github.com/dropDatabas3/idlink/internal/session"
	"github.com/dropDatabas3/idlink/internal/social"
)

// Deps permite inyectar piezas ya construidas (tests). Los campos nil se arman desde Config.
type Deps struct {
	Cache      cache.Client
	Storage    *Storage
	HTTPClient *http.Client // cliente hacia el proveedor
	Logger     *zap.Logger
}

// App es el servicio cableado.
type App struct {
	Config    *config.Config
	Handler   http.Handler
	States    *oauth.StateStore
	Storage   *Storage
	Cache     cache.Client
	Metrics   *metrics.Metrics
	Retention *audit.Retention

	log     *zap.Logger
	closers []func()
}

// New valida la configuración y cablea todo. Close libera lo abierto.
func New(ctx context.Context, cfg *config.Config, d Deps) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := d.Logger
	if log == nil {
		log = logger.L()
	}
	a := &App{Config: cfg, log: log.With(logger.Component("app"))}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// proveedor
	clientCfg := cfg.ClientConfig()
	httpClient := d.HTTPClient
	if httpClient == nil {
		httpClient = oauth.NewHTTPClient(clientCfg.Timeout)
	}
	if cfg.Provider.DiscoveryURL != "" && !endpointsComplete(clientCfg) {
		doc, err := oauth.Discover(ctx, httpClient, cfg.Provider.DiscoveryURL)
		if err != nil {
			return nil, fmt.Errorf("provider discovery: %w", err)
		}
		doc.Apply(&clientCfg)
		a.log.Info("provider endpoints discovered", zap.String("issuer", doc.Issuer))
	}
	if err := clientCfg.Validate(); err != nil {
		return nil, err
	}
	if err := oauth.CheckRandom(); err != nil {
		return nil, err
	}

	// cache + state store
	a.Cache = d.Cache
	if a.Cache == nil {
		if a.Cache, err = OpenCache(cfg); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = a.Cache.Close() })
	}
	a.States = oauth.NewStateStore(a.Cache)

	// storage
	a.Storage = d.Storage
	if a.Storage == nil {
		if a.Storage, err = OpenStorage(ctx, cfg, log); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.Storage.Close)
	}

	// métricas
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		if a.Metrics, err = metrics.New(reg); err != nil {
			return nil, err
		}
		extra := []prometheus.Collector{
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			metrics.NewCacheCollector(a.Cache),
		}
		if a.Storage.PG != nil {
			extra = append(extra, metrics.NewPoolCollector(a.Storage.PG.Pool))
		}
		for _, c := range extra {
			if err := metrics.Register(reg, c); err != nil {
				return nil, err
			}
		}
	}

	// auditoría
	sinks := audit.Multi{audit.RepoSink{Repo: a.Storage.Audit, Log: log}}
	if cfg.Audit.Log {
		sinks = append(sinks, audit.LogSink{Log: log})
	}
	a.Retention = &audit.Retention{
		Repo:     a.Storage.Audit,
		Days:     cfg.Audit.RetentionDays,
		Interval: cfg.Audit.PruneInterval,
		Log:      log,
	}

	// identidad
	notifiers := notify.Multi{notify.Log{Logger: log}}
	if cfg.SMTP.Host != "" && len(cfg.Notify.AdminEmails) > 0 {
		notifiers = append(notifiers, notify.Mail{
			Sender:     notify.NewSMTPSender(cfg.SMTP),
			Recipients: cfg.Notify.AdminEmails,
			Logger:     log,
		})
	}
	resolver := identity.NewResolver(identity.Deps{
		Directory: a.Storage.Users,
		Notifier:  notifiers,
		Hasher:    password.New(cfg.Login.PasswordHasher),
		Config: identity.Config{
			AutoRegister:      cfg.Login.AutoRegister,
			DefaultRole:       cfg.Login.DefaultRole,
			MaxUsernameProbes: cfg.Login.MaxUsernameProbes,
		},
		Logger: log,
	})

	sessions, err := session.NewIssuer(cfg.Session)
	if err != nil {
		return nil, err
	}

	redirect := social.NewRedirectPolicy(cfg.Server.BaseURL, cfg.Server.DefaultRedirect, cfg.Server.AllowedRedirectHosts)
	callback := social.NewCallbackService(social.CallbackDeps{
		States:   a.States,
		Tokens:   oauth.NewTokenClient(clientCfg, a.States, httpClient, log),
		Profiles: oauth.NewProfileClient(clientCfg, httpClient, log),
		Resolver: resolver,
		Sessions: sessions,
		Meta:     a.Storage.Meta,
		Audit:    sinks,
		Metrics:  a.Metrics,
		Redirect: redirect,
		Logger:   log,
	})

	loginCtrl := login.NewController(login.Deps{
		Builder:  oauth.NewBuilder(clientCfg, a.States, cfg.Login.StateTTL, log),
		Callback: callback,
		Redirect: redirect,
		Metrics:  a.Metrics,
		Logger:   log,
		Config: login.Config{
			Enabled:       cfg.Login.Enabled,
			StateTTL:      cfg.Login.StateTTL,
			SecureCookies: cfg.Session.Secure,
			CallbackPath:  cfg.Login.CallbackPath,
		},
	})

	pingers := map[string]health.Pinger{"cache": a.Cache}
	if a.Storage.PG != nil {
		pingers["postgres"] = a.Storage.PG
	}

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		limiter = newLimiter(a.Cache, cfg)
	}

	a.Handler = router.New(router.Deps{
		Login:       loginCtrl,
		Health:      health.NewController(cfg.App.Version, pingers),
		Metrics:     a.Metrics,
		MetricsPath: cfg.Metrics.Path,
		Limiter:     limiter,
		TrustProxy:  cfg.Rate.TrustProxy,
		Logger:      log,
	})
	return a, nil
}

// newLimiter comparte Redis con el cache cuando está disponible; si no, limita en memoria.
func newLimiter(c cache.Client, cfg *config.Config) rate.Limiter {
	if rc, ok := c.(interface{ Underlying() *redis.Client }); ok {
		return rate.NewRedisLimiter(rc.Underlying(), "", cfg.Rate.Max, cfg.Rate.Window)
	}
	return rate.NewMemoryLimiter(cfg.Rate.Max, cfg.Rate.Window)
}

func endpointsComplete(c oauth.ClientConfig) bool {
	return c.AuthorizeEndpoint != "" && c.TokenEndpoint != "" && c.UserinfoEndpoint != ""
}

// Server devuelve el http.Server con los timeouts configurados.
func (a *App) Server() *http.Server {
	return &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      a.Handler,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
}

// Serve atiende hasta que ctx se cancele y luego hace shutdown ordenado.
func (a *App) Serve(ctx context.Context) error {
	srv := a.Server()
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	a.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Close libera los recursos abiertos por New, en orden inverso.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
