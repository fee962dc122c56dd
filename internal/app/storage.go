package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/cache"
	"github.com/dropDatabas3/idlink/internal/config"
	"github.com/dropDatabas3/idlink/internal/domain/repository"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
	"github.com/dropDatabas3/idlink/internal/store/memory"
	"github.com/dropDatabas3/idlink/internal/store/pg"
	pgmigrations "github.com/dropDatabas3/idlink/migrations/postgres"
)

// Storage agrupa los repositorios según storage.driver.
type Storage struct {
	Users repository.UserDirectory
	Meta  interface {
		SetMetadata(ctx context.Context, userID, key, value string) error
	}
	Audit repository.AuditRepository
	PG    *pg.Store // nil con el driver memory
}

// Close libera el pool si lo hay.
func (s *Storage) Close() {
	if s != nil && s.PG != nil {
		s.PG.Close()
	}
}

// OpenStorage abre el backend configurado. Con storage.migrate aplica las migraciones pendientes.
func OpenStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Storage, error) {
	if log == nil {
		log = logger.L()
	}
	log = log.With(logger.Component("app.storage"), zap.String("driver", cfg.Storage.Driver))

	switch cfg.Storage.Driver {
	case "postgres":
		st, err := pg.Open(ctx, pg.Config{
			DSN:      cfg.Storage.DSN,
			MaxConns: cfg.Storage.MaxConns,
			MinConns: cfg.Storage.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Migrate {
			res, err := Migrate(ctx, st)
			if err != nil {
				st.Close()
				return nil, err
			}
			log.Info("migrations applied", logger.Count(len(res.Applied)), zap.Duration("took", res.Duration))
		}
		log.Info("storage ready")
		return &Storage{Users: st.Users(), Meta: st.Users(), Audit: st.Audit(), PG: st}, nil
	case "memory", "":
		log.Warn("using in-memory storage, users and audit events are lost on restart")
		users := memory.NewUsers()
		return &Storage{Users: users, Meta: users, Audit: memory.NewAudit()}, nil
	default:
		return nil, fmt.Errorf("storage driver %q not supported", cfg.Storage.Driver)
	}
}

// Migrate aplica las migraciones embebidas de Postgres.
func Migrate(ctx context.Context, st *pg.Store) (*pg.MigrationResult, error) {
	return pg.NewMigrator(pgmigrations.FS, pgmigrations.Dir).Run(ctx, st.Pool())
}

// OpenCache crea el cliente de cache (memory | redis) que respalda el state store.
func OpenCache(cfg *config.Config) (cache.Client, error) {
	return cache.New(cache.Config{
		Driver:     cfg.Cache.Driver,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Prefix,
		DefaultTTL: cfg.Login.StateTTL,
	})
}
