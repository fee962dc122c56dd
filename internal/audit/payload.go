package audit

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resuelve la IP del cliente: Client-IP, luego el primer X-Forwarded-For,
// luego RemoteAddr.
func ClientIP(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("Client-IP")); v != "" {
		return v
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		if first := strings.TrimSpace(strings.Split(xf, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// Payload arma el payload de un evento: ip y user_agent, más extra.
// Los strings vacíos de extra se omiten.
func Payload(ip, userAgent string, extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+2)
	if ip != "" {
		out["ip"] = ip
	}
	if userAgent != "" {
		out["user_agent"] = userAgent
	}
	for k, v := range extra {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	return out
}
