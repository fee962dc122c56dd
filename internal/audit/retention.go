package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
)

// DefaultRetentionDays de eventos en el log de actividad.
const DefaultRetentionDays = 30

// Retention borra eventos más viejos que Days.
type Retention struct {
	Repo     repository.AuditRepository
	Days     int
	Interval time.Duration
	Log      *zap.Logger
	now      func() time.Time
}

// PruneOnce borra una vez. Retorna la cantidad borrada.
func (r *Retention) PruneOnce(ctx context.Context) (int64, error) {
	days := r.Days
	if days <= 0 {
		days = DefaultRetentionDays
	}
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	return r.Repo.Prune(ctx, now().UTC().AddDate(0, 0, -days))
}

// Run poda cada Interval (default 24h) hasta que ctx se cancele.
func (r *Retention) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	log := r.Log
	if log == nil {
		log = logger.L()
	}
	log = log.With(logger.Component("audit.retention"))

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if n, err := r.PruneOnce(ctx); err != nil {
			log.Warn("audit prune failed", logger.Err(err))
		} else if n > 0 {
			log.Info("audit events pruned", logger.Count(int(n)))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
