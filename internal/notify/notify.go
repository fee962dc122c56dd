// Package notify avisa cuando el login federado crea un usuario local nuevo.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
	"github.com/dropDatabas3/idlink/internal/oauth"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
)

// Log deja una línea por usuario creado.
type Log struct {
	Logger *zap.Logger
}

func (n Log) UserCreated(ctx context.Context, u *repository.LocalUser, p *oauth.ExternalProfile) {
	l := logger.FromOr(ctx, n.Logger)
	l.Info("user provisioned from provider",
		logger.Component("notify"),
		logger.UserID(u.ID),
		logger.Username(u.Username),
		logger.Email(u.Email),
		logger.ExternalID(p.ExternalID),
	)
}

// Notifier es el mismo contrato que consume identity.Resolver.
type Notifier interface {
	UserCreated(ctx context.Context, u *repository.LocalUser, p *oauth.ExternalProfile)
}

// Multi reparte el aviso.
type Multi []Notifier

func (m Multi) UserCreated(ctx context.Context, u *repository.LocalUser, p *oauth.ExternalProfile) {
	for _, n := range m {
		if n != nil {
			n.UserCreated(ctx, u, p)
		}
	}
}
