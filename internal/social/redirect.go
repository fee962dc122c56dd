package social

import (
	"net/url"
	"strings"
)

// RedirectPolicy valida el destino post-login.
type RedirectPolicy struct {
	Default      string
	allowedHosts map[string]struct{}
}

// NewRedirectPolicy arma la política. El host de baseURL siempre está permitido.
func NewRedirectPolicy(baseURL, defaultRedirect string, allowedHosts []string) *RedirectPolicy {
	p := &RedirectPolicy{Default: defaultRedirect, allowedHosts: map[string]struct{}{}}
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		p.allowedHosts[strings.ToLower(u.Host)] = struct{}{}
	}
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			p.allowedHosts[h] = struct{}{}
		}
	}
	if p.Default == "" {
		p.Default = "/"
	}
	return p
}

// Sanitize devuelve raw si es seguro, si no el destino por defecto.
// Seguro: path relativo con una sola "/" inicial, o URL http(s) absoluta con host permitido.
func (p *RedirectPolicy) Sanitize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "\\\r\n\t") {
		return p.Default
	}
	if strings.HasPrefix(raw, "/") {
		if strings.HasPrefix(raw, "//") {
			return p.Default
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host != "" || u.Scheme != "" {
			return p.Default
		}
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User != nil {
		return p.Default
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return p.Default
	}
	if _, ok := p.allowedHosts[strings.ToLower(u.Host)]; !ok {
		return p.Default
	}
	return raw
}
