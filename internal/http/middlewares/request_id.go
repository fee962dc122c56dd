package middlewares

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/idlink/internal/audit"
)

// WithRequestID propaga X-Request-ID o genera uno nuevo, y lo expone en la respuesta.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if rid == "" || len(rid) > 128 {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)
			next.ServeHTTP(w, r.WithContext(setRequestID(r.Context(), rid)))
		})
	}
}

// WithClientIP resuelve la IP del cliente una vez por request (Client-IP, X-Forwarded-For, RemoteAddr).
func WithClientIP() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(setClientIP(r.Context(), audit.ClientIP(r))))
		})
	}
}

// ClientIP devuelve la IP ya resuelta o la resuelve en el momento.
func ClientIP(r *http.Request) string {
	if ip := GetClientIP(r.Context()); ip != "" {
		return ip
	}
	return audit.ClientIP(r)
}
