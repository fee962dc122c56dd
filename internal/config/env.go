package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

func setStr(dst *string, key string) {
	if v, ok := getEnvStr(key); ok {
		*dst = v
	}
}
func setInt(dst *int, key string) {
	if v, ok := getEnvInt(key); ok {
		*dst = v
	}
}
func setBool(dst *bool, key string) {
	if v, ok := getEnvBool(key); ok {
		*dst = v
	}
}
func setDur(dst *time.Duration, key string) {
	if v, ok := getEnvDur(key); ok {
		*dst = v
	}
}
func setCSV(dst *[]string, key string) {
	if v, ok := getEnvCSV(key); ok {
		*dst = v
	}
}

// applyEnvOverrides: el entorno pisa al YAML.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	setStr(&c.App.Version, "APP_VERSION")

	setStr(&c.Server.Addr, "SERVER_ADDR")
	setStr(&c.Server.BaseURL, "SERVER_BASE_URL")
	setCSV(&c.Server.AllowedRedirectHosts, "SERVER_ALLOWED_REDIRECT_HOSTS")
	setStr(&c.Server.DefaultRedirect, "SERVER_DEFAULT_REDIRECT")
	setDur(&c.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")

	setStr(&c.Log.Level, "LOG_LEVEL")

	setStr(&c.Provider.ClientID, "PROVIDER_CLIENT_ID")
	setStr(&c.Provider.ClientSecret, "PROVIDER_CLIENT_SECRET")
	setStr(&c.Provider.AuthorizeEndpoint, "PROVIDER_AUTHORIZE_ENDPOINT")
	setStr(&c.Provider.TokenEndpoint, "PROVIDER_TOKEN_ENDPOINT")
	setStr(&c.Provider.UserinfoEndpoint, "PROVIDER_USERINFO_ENDPOINT")
	setStr(&c.Provider.DiscoveryURL, "PROVIDER_DISCOVERY_URL")
	setStr(&c.Provider.Scope, "PROVIDER_SCOPE")
	setStr(&c.Provider.RedirectURI, "PROVIDER_REDIRECT_URI")
	setDur(&c.Provider.Timeout, "PROVIDER_TIMEOUT")

	setBool(&c.Login.Enabled, "LOGIN_ENABLED")
	setBool(&c.Login.AutoRegister, "LOGIN_AUTO_REGISTER")
	setStr(&c.Login.DefaultRole, "LOGIN_DEFAULT_ROLE")
	setDur(&c.Login.StateTTL, "LOGIN_STATE_TTL")
	setInt(&c.Login.MaxUsernameProbes, "LOGIN_MAX_USERNAME_PROBES")
	setStr(&c.Login.PasswordHasher, "LOGIN_PASSWORD_HASHER")

	setStr(&c.Cache.Driver, "CACHE_DRIVER")
	setStr(&c.Cache.Prefix, "CACHE_PREFIX")
	setStr(&c.Cache.Redis.Addr, "REDIS_ADDR")
	setStr(&c.Cache.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Cache.Redis.DB, "REDIS_DB")

	setStr(&c.Storage.Driver, "STORAGE_DRIVER")
	setStr(&c.Storage.DSN, "STORAGE_DSN")
	if v, ok := getEnvInt("STORAGE_MAX_CONNS"); ok {
		c.Storage.MaxConns = int32(v)
	}
	setBool(&c.Storage.Migrate, "STORAGE_MIGRATE")

	setStr(&c.Session.CookieName, "SESSION_COOKIE")
	setStr(&c.Session.Secret, "SESSION_SECRET")
	setDur(&c.Session.TTL, "SESSION_TTL")
	setBool(&c.Session.Secure, "SESSION_SECURE")
	setStr(&c.Session.Domain, "SESSION_DOMAIN")
	setStr(&c.Session.SameSite, "SESSION_SAMESITE")

	setInt(&c.Audit.RetentionDays, "AUDIT_RETENTION_DAYS")
	setDur(&c.Audit.PruneInterval, "AUDIT_PRUNE_INTERVAL")
	setBool(&c.Audit.Log, "AUDIT_LOG")

	setBool(&c.Rate.Enabled, "RATE_ENABLED")
	setDur(&c.Rate.Window, "RATE_WINDOW")
	setInt(&c.Rate.Max, "RATE_MAX")
	setBool(&c.Rate.TrustProxy, "RATE_TRUST_PROXY")

	setStr(&c.SMTP.Host, "SMTP_HOST")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setStr(&c.SMTP.From, "SMTP_FROM")
	setStr(&c.SMTP.Username, "SMTP_USERNAME")
	setStr(&c.SMTP.Password, "SMTP_PASSWORD")
	setStr(&c.SMTP.TLSMode, "SMTP_TLS_MODE")
	setCSV(&c.Notify.AdminEmails, "NOTIFY_ADMIN_EMAILS")

	setBool(&c.Metrics.Enabled, "METRICS_ENABLED")
	setStr(&c.Metrics.Path, "METRICS_PATH")

	// en prod la cookie de sesión siempre es Secure
	if c.IsProd() {
		c.Session.Secure = true
	}
}
