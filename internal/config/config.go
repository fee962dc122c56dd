// Package config carga la configuración: YAML opcional, defaults y overrides por entorno.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/idlink/internal/notify"
	"github.com/dropDatabas3/idlink/internal/oauth"
	"github.com/dropDatabas3/idlink/internal/session"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env"`
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr                 string        `yaml:"addr"`
		BaseURL              string        `yaml:"base_url"`
		AllowedRedirectHosts []string      `yaml:"allowed_redirect_hosts"`
		DefaultRedirect      string        `yaml:"default_redirect"`
		ReadTimeout          time.Duration `yaml:"read_timeout"`
		WriteTimeout         time.Duration `yaml:"write_timeout"`
		ShutdownTimeout      time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Provider struct {
		ClientID          string        `yaml:"client_id"`
		ClientSecret      string        `yaml:"client_secret"`
		AuthorizeEndpoint string        `yaml:"authorize_endpoint"`
		TokenEndpoint     string        `yaml:"token_endpoint"`
		UserinfoEndpoint  string        `yaml:"userinfo_endpoint"`
		DiscoveryURL      string        `yaml:"discovery_url"`
		Scope             string        `yaml:"scope"`
		RedirectURI       string        `yaml:"redirect_uri"`
		Timeout           time.Duration `yaml:"timeout"`
	} `yaml:"provider"`

	Login struct {
		Enabled           bool          `yaml:"enabled"`
		AutoRegister      bool          `yaml:"auto_register"`
		DefaultRole       string        `yaml:"default_role"`
		StateTTL          time.Duration `yaml:"state_ttl"`
		MaxUsernameProbes int           `yaml:"max_username_probes"`
		PasswordHasher    string        `yaml:"password_hasher"` // bcrypt | argon2id
		CallbackPath      string        `yaml:"callback_path"`
	} `yaml:"login"`

	Cache struct {
		Driver string `yaml:"driver"` // memory | redis
		Prefix string `yaml:"prefix"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | postgres
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns"`
		MinConns int32  `yaml:"min_conns"`
		Migrate  bool   `yaml:"migrate"` // aplicar migraciones al arrancar
	} `yaml:"storage"`

	Session session.Config `yaml:"session"`

	Audit struct {
		RetentionDays int           `yaml:"retention_days"`
		PruneInterval time.Duration `yaml:"prune_interval"`
		Log           bool          `yaml:"log"` // además de persistir, loguear cada evento
	} `yaml:"audit"`

	Rate struct {
		Enabled bool          `yaml:"enabled"`
		Window  time.Duration `yaml:"window"`
		Max     int           `yaml:"max"`
		// TrustProxy toma la IP de Client-IP / X-Forwarded-For para la clave.
		TrustProxy bool `yaml:"trust_proxy"`
	} `yaml:"rate"`

	SMTP notify.SMTPConfig `yaml:"smtp"`

	Notify struct {
		AdminEmails []string `yaml:"admin_emails"`
	} `yaml:"notify"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Default devuelve la configuración base (sin archivo ni entorno).
func Default() *Config {
	var c Config
	c.App.Env = "dev"
	c.App.Name = "idlink"
	c.Login.Enabled = true
	c.Login.AutoRegister = true
	c.Rate.Enabled = true
	c.Metrics.Enabled = true
	c.applyDefaults()
	return &c
}

// Load lee path (si no es vacío), completa defaults y aplica el entorno.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.DefaultRedirect == "" {
		c.Server.DefaultRedirect = "/"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// el callback hace dos llamadas al proveedor de hasta 30s cada una
		c.Server.WriteTimeout = 75 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Provider.Scope == "" {
		c.Provider.Scope = "view-user"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = oauth.DefaultTimeout
	}
	if c.Login.DefaultRole == "" {
		c.Login.DefaultRole = "subscriber"
	}
	if c.Login.StateTTL == 0 {
		c.Login.StateTTL = oauth.DefaultStateTTL
	}
	if c.Login.PasswordHasher == "" {
		c.Login.PasswordHasher = "bcrypt"
	}
	if c.Login.CallbackPath == "" {
		c.Login.CallbackPath = "/oauth/callback"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "idlink"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.MaxConns == 0 {
		c.Storage.MaxConns = 10
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "idlink_session"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Session.SameSite == "" {
		c.Session.SameSite = "lax"
	}
	if c.Audit.RetentionDays == 0 {
		c.Audit.RetentionDays = 30
	}
	if c.Audit.PruneInterval == 0 {
		c.Audit.PruneInterval = 24 * time.Hour
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.Max == 0 {
		c.Rate.Max = 20
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// IsProd indica si corre en producción.
func (c *Config) IsProd() bool { return strings.EqualFold(c.App.Env, "prod") }

// ClientConfig arma la configuración del cliente OAuth.
func (c *Config) ClientConfig() oauth.ClientConfig {
	return oauth.ClientConfig{
		ClientID:          c.Provider.ClientID,
		ClientSecret:      c.Provider.ClientSecret,
		AuthorizeEndpoint: c.Provider.AuthorizeEndpoint,
		TokenEndpoint:     c.Provider.TokenEndpoint,
		UserinfoEndpoint:  c.Provider.UserinfoEndpoint,
		RedirectURI:       c.Provider.RedirectURI,
		Scope:             c.Provider.Scope,
		Timeout:           c.Provider.Timeout,
	}
}

// Validate revisa los valores críticos. Los endpoints pueden faltar si hay discovery_url.
func (c *Config) Validate() error {
	var errs []error
	if c.Provider.ClientID == "" {
		errs = append(errs, errors.New("provider.client_id is required"))
	}
	if c.Provider.ClientSecret == "" {
		errs = append(errs, errors.New("provider.client_secret is required"))
	}
	if u, err := url.Parse(c.Provider.RedirectURI); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.New("provider.redirect_uri must be an absolute URL"))
	}
	if c.Provider.DiscoveryURL == "" {
		for name, v := range map[string]string{
			"provider.authorize_endpoint": c.Provider.AuthorizeEndpoint,
			"provider.token_endpoint":     c.Provider.TokenEndpoint,
			"provider.userinfo_endpoint":  c.Provider.UserinfoEndpoint,
		} {
			if v == "" {
				errs = append(errs, fmt.Errorf("%s is required without provider.discovery_url", name))
			}
		}
	}
	switch {
	case c.Session.Secret == "":
		errs = append(errs, errors.New("session.secret is required"))
	case c.IsProd() && len(c.Session.Secret) < 32:
		errs = append(errs, errors.New("session.secret must be at least 32 bytes in prod"))
	}
	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.driver %q not supported", c.Cache.Driver))
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported", c.Storage.Driver))
	}
	switch strings.ToLower(c.Login.PasswordHasher) {
	case "bcrypt", "argon2id", "argon2":
	default:
		errs = append(errs, fmt.Errorf("login.password_hasher %q not supported", c.Login.PasswordHasher))
	}
	if len(c.Notify.AdminEmails) > 0 && c.SMTP.Host == "" {
		errs = append(errs, errors.New("smtp.host is required when notify.admin_emails is set"))
	}
	return errors.Join(errs...)
}
