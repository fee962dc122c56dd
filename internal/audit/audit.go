// Package audit emite y retiene los eventos de login (login_success / login_failure).
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
)

// Sink recibe eventos de auditoría. Emit no falla el flujo: los errores se loguean.
type Sink interface {
	Emit(ctx context.Context, ev repository.AuditEvent)
}

// RepoSink persiste eventos en un AuditRepository.
type RepoSink struct {
	Repo repository.AuditRepository
	Log  *zap.Logger
}

func (s RepoSink) Emit(ctx context.Context, ev repository.AuditEvent) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := s.Repo.Append(ctx, ev); err != nil {
		logger.FromOr(ctx, s.Log).Error("audit append failed",
			logger.Component("audit"),
			logger.String("event", ev.Type),
			logger.Err(err),
		)
	}
}

// LogSink escribe cada evento como una línea estructurada.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Emit(ctx context.Context, ev repository.AuditEvent) {
	l := s.Log
	if l == nil {
		l = logger.L()
	}
	l.Info("audit",
		logger.String("event", ev.Type),
		logger.UserID(ev.UserID),
		logger.Any("data", ev.Payload),
	)
}

// Multi reparte el evento a todos los sinks.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, ev repository.AuditEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, ev)
		}
	}
}
