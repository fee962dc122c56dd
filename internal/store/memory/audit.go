package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
)

// Audit es un repository.AuditRepository en memoria.
type Audit struct {
	mu     sync.Mutex
	events []repository.AuditEvent
}

func NewAudit() *Audit { return &Audit{} }

var _ repository.AuditRepository = (*Audit)(nil)

func (a *Audit) Append(ctx context.Context, ev repository.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	a.mu.Lock()
	a.events = append(a.events, ev)
	a.mu.Unlock()
	return nil
}

func (a *Audit) Prune(ctx context.Context, before time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.events[:0]
	var n int64
	for _, ev := range a.events {
		if ev.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, ev)
	}
	a.events = kept
	return n, nil
}

// Events devuelve una copia de los eventos guardados.
func (a *Audit) Events() []repository.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]repository.AuditEvent(nil), a.events...)
}

// ByType filtra por tipo de evento.
func (a *Audit) ByType(t string) []repository.AuditEvent {
	var out []repository.AuditEvent
	for _, ev := range a.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
