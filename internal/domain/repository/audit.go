package repository

import (
	"context"
	"time"
)

// Tipos de evento de auditoría.
const (
	EventLoginSuccess = "login_success"
	EventLoginFailure = "login_failure"
)

// AuditEvent es una fila del log de actividad. UserID vacío si no hay usuario.
type AuditEvent struct {
	ID        string
	UserID    string
	Type      string
	Payload   map[string]any
	CreatedAt time.Time
}

// AuditRepository persiste eventos y aplica la retención.
type AuditRepository interface {
	Append(ctx context.Context, ev AuditEvent) error
	// Prune borra eventos con CreatedAt anterior a before. Retorna cuántos borró.
	Prune(ctx context.Context, before time.Time) (int64, error)
}
