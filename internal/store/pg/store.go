// Package pg implementa el directorio de usuarios y el log de actividad sobre PostgreSQL (pgx).
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
)

// Config del pool.
type Config struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// Store agrupa el pool y los repositorios.
type Store struct {
	pool  *pgxpool.Pool
	users *Users
	audit *Audit
}

// Open conecta y verifica la conexión.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	poolCfg.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = 1
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool, users: &Users{pool: pool}, audit: &Audit{pool: pool}}, nil
}

func (s *Store) Pool() *pgxpool.Pool            { return s.pool }
func (s *Store) Users() *Users                  { return s.users }
func (s *Store) Audit() *Audit                  { return s.audit }
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
func (s *Store) Close()                         { s.pool.Close() }

// mapError traduce violaciones de constraints a errores del repositorio.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("pg: %s: %w (%s)", op, repository.ErrConflict, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("pg: %s: %w", op, repository.ErrNotFound)
		}
	}
	return fmt.Errorf("pg: %s: %w", op, err)
}
