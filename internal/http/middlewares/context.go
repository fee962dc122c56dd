package middlewares

import "context"

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxClientIPKey  ctxKey = "client_ip"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

func setClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxClientIPKey, ip)
}

// GetRequestID obtiene el request ID del contexto. "" si no hay.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}

// GetClientIP obtiene la IP resuelta por WithClientIP. "" si no hay.
func GetClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(ctxClientIPKey).(string); ok {
		return v
	}
	return ""
}
