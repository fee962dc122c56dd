package pg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
)

// Audit implementa repository.AuditRepository sobre audit_log.
type Audit struct {
	pool *pgxpool.Pool
}

var _ repository.AuditRepository = (*Audit)(nil)

// nullIfEmpty devuelve nil si s es vacío.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (a *Audit) Append(ctx context.Context, ev repository.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	payload := ev.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	const q = `INSERT INTO audit_log (id, user_id, event_type, event_data, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := a.pool.Exec(ctx, q, ev.ID, nullIfEmpty(ev.UserID), ev.Type, data, ev.CreatedAt); err != nil {
		return mapError("append audit", err)
	}
	return nil
}

func (a *Audit) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := a.pool.Exec(ctx, `DELETE FROM audit_log WHERE created_at < $1`, before)
	if err != nil {
		return 0, mapError("prune audit", err)
	}
	return tag.RowsAffected(), nil
}

// Recent devuelve los últimos eventos del usuario (más nuevo primero).
func (a *Audit) Recent(ctx context.Context, userID string, limit int) ([]repository.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.pool.Query(ctx, `
		SELECT id, COALESCE(user_id::text, ''), event_type, event_data, created_at
		FROM audit_log WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, mapError("recent audit", err)
	}
	defer rows.Close()
	var out []repository.AuditEvent
	for rows.Next() {
		var ev repository.AuditEvent
		var data []byte
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Type, &data, &ev.CreatedAt); err != nil {
			return nil, mapError("recent audit", err)
		}
		if err := json.Unmarshal(data, &ev.Payload); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
