package session

import (
	"net/http"
	"strings"
	"time"
)

// ParseSameSite mapea lax|strict|none; cualquier otro valor es Lax.
func ParseSameSite(s string) http.SameSite {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func BuildCookie(name, value, domain, sameSite string, secure bool, ttl time.Duration, now time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: ParseSameSite(sameSite),
	}
	// SameSite=None exige Secure en los browsers
	if ck.SameSite == http.SameSiteNoneMode {
		ck.Secure = true
	}
	if d := strings.TrimSpace(domain); d != "" {
		ck.Domain = d
	}
	if ttl > 0 {
		ck.Expires = now.Add(ttl).UTC()
		ck.MaxAge = int(ttl.Seconds())
	}
	return ck
}
