package pg

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Formato de archivo: {version}_{name}.sql (ej: 0001_init.sql)

// Migrator aplica migraciones SQL embebidas.
type Migrator struct {
	fsys fs.FS
	dir  string
}

// NewMigrator crea un Migrator que lee dir dentro de fsys.
func NewMigrator(fsys fs.FS, dir string) *Migrator {
	if dir == "" {
		dir = "."
	}
	return &Migrator{fsys: fsys, dir: dir}
}

// Migration es una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationResult resultado de aplicar migraciones.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// ParseMigrations lee y ordena por versión. Versiones duplicadas son error.
func (m *Migrator) ParseMigrations() ([]Migration, error) {
	var out []Migration
	seen := map[int]string{}

	err := fs.WalkDir(m.fsys, m.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != m.dir {
				return fs.SkipDir
			}
			return nil
		}
		matches := migrationFilePattern.FindStringSubmatch(path.Base(p))
		if matches == nil {
			return nil
		}
		version, _ := strconv.Atoi(matches[1])
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %d (%s, %s)", version, prev, p)
		}
		seen[version] = p

		content, err := fs.ReadFile(m.fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		out = append(out, Migration{Version: version, Name: matches[2], SQL: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS _migrations (
		version    INT PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// Run aplica las pendientes, cada una en su propia transacción.
func (m *Migrator) Run(ctx context.Context, pool *pgxpool.Pool) (*MigrationResult, error) {
	start := time.Now()
	res := &MigrationResult{}

	if _, err := pool.Exec(ctx, createMigrationsTable); err != nil {
		return res, fmt.Errorf("creating migrations table: %w", err)
	}
	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return res, fmt.Errorf("getting applied migrations: %w", err)
	}
	migrations, err := m.ParseMigrations()
	if err != nil {
		return res, fmt.Errorf("parsing migrations: %w", err)
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			res.Skipped = append(res.Skipped, mig.Version)
			continue
		}
		if err := apply(ctx, pool, mig); err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("applying migration %d_%s: %w", mig.Version, mig.Name, err)
		}
		res.Applied = append(res.Applied, mig.Version)
	}
	res.Duration = time.Since(start)
	return res, nil
}

// HasPending indica si queda alguna migración sin aplicar.
func (m *Migrator) HasPending(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = '_migrations')`).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return false, err
	}
	migrations, err := m.ParseMigrations()
	if err != nil {
		return false, err
	}
	for _, mig := range migrations {
		if !applied[mig.Version] {
			return true, nil
		}
	}
	return false, nil
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[int]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return nil, err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	if err != nil {
		return nil, err
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[int(v)] = true
	}
	return applied, nil
}

func apply(ctx context.Context, pool *pgxpool.Pool, mig Migration) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, mig.SQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO _migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name)
		return err
	})
}
