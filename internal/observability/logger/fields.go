package logger

import (
	"strings"

	"go.uber.org/zap"
)

// =================================================================================
// HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// =================================================================================
// LOGIN / OAUTH
// =================================================================================

// UserID crea un campo para el ID del usuario local.
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// ClientID crea un campo para el client_id OAuth.
func ClientID(v string) zap.Field { return zap.String("client_id", v) }

// ExternalID crea un campo para el ID del usuario en el proveedor.
func ExternalID(v string) zap.Field { return zap.String("external_id", v) }

// Email crea un campo con el email enmascarado (a***@dominio).
func Email(v string) zap.Field { return zap.String("email", MaskEmail(v)) }

// Username crea un campo para el username local.
func Username(v string) zap.Field { return zap.String("username", v) }

// StatePrefix loguea solo los primeros caracteres del state.
func StatePrefix(v string) zap.Field { return zap.String("state", Prefix(v)) }

// TokenPrefix loguea solo los primeros caracteres de un token.
func TokenPrefix(v string) zap.Field { return zap.String("token_prefix", Prefix(v)) }

// Reason crea un campo para el motivo interno de una falla.
func Reason(v string) zap.Field { return zap.String("reason", v) }

// FlowState crea un campo para el estado del flujo de callback.
func FlowState(v string) zap.Field { return zap.String("flow_state", v) }

// Endpoint crea un campo para una URL de proveedor (sin query).
func Endpoint(v string) zap.Field {
	if i := strings.IndexByte(v, '?'); i >= 0 {
		v = v[:i]
	}
	return zap.String("endpoint", v)
}

// =================================================================================
// SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }
func Count(v int) zap.Field        { return zap.Int("count", v) }

func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

// =================================================================================
// HELPERS
// =================================================================================

// Prefix devuelve los primeros 8 caracteres de un secreto seguidos de "…".
// Nunca devuelve el valor completo.
func Prefix(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return s[:len(s)/2] + "…"
	}
	return s[:8] + "…"
}

// MaskEmail enmascara un email para logs: "juan@x.com" -> "j***@x.com".
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
