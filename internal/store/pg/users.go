package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
)

// Users implementa repository.UserDirectory.
type Users struct {
	pool *pgxpool.Pool
}

var _ repository.UserDirectory = (*Users)(nil)

const selectUser = `
	SELECT u.id, u.email, u.username, u.display_name, u.first_name, u.last_name, u.role, u.created_at,
	       COALESCE(m.meta_value, '')
	FROM app_user u
	LEFT JOIN user_meta m ON m.user_id = u.id AND m.meta_key = 'external_id'
`

func scanUser(row pgx.Row) (*repository.LocalUser, error) {
	var u repository.LocalUser
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.DisplayName, &u.FirstName, &u.LastName,
		&u.Role, &u.CreatedAt, &u.ExternalID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Users) FindByExternalID(ctx context.Context, externalID string) (*repository.LocalUser, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE m.meta_value = $1`, externalID))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, mapError("find by external_id", err)
	}
	return u, err
}

func (r *Users) FindByEmail(ctx context.Context, email string) (*repository.LocalUser, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		selectUser+` WHERE lower(u.email) = lower($1) ORDER BY u.created_at, u.id LIMIT 1`,
		strings.TrimSpace(email)))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, mapError("find by email", err)
	}
	return u, err
}

func (r *Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM app_user WHERE lower(username) = lower($1))`, username).Scan(&exists)
	if err != nil {
		return false, mapError("username exists", err)
	}
	return exists, nil
}

func (r *Users) CreateUser(ctx context.Context, in repository.CreateUserInput) (*repository.LocalUser, error) {
	if in.Email == "" || in.Username == "" {
		return nil, repository.ErrInvalidInput
	}
	u := &repository.LocalUser{
		ID:          uuid.NewString(),
		Email:       in.Email,
		Username:    in.Username,
		DisplayName: in.DisplayName,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Role:        in.Role,
	}
	const q = `
		INSERT INTO app_user (id, email, username, display_name, first_name, last_name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`
	err := r.pool.QueryRow(ctx, q, u.ID, u.Email, u.Username, u.DisplayName, u.FirstName, u.LastName,
		u.Role, in.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		return nil, mapError("create user", err)
	}
	return u, nil
}

func (r *Users) UpdateUser(ctx context.Context, userID string, in repository.UpdateUserInput) error {
	if in.Empty() {
		return nil
	}
	const q = `
		UPDATE app_user SET
			display_name = COALESCE($2, display_name),
			first_name   = COALESCE($3, first_name),
			last_name    = COALESCE($4, last_name),
			updated_at   = NOW()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, userID, in.DisplayName, in.FirstName, in.LastName)
	if err != nil {
		return mapError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Users) SetMetadata(ctx context.Context, userID, key, value string) error {
	const q = `
		INSERT INTO user_meta (user_id, meta_key, meta_value) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value, updated_at = NOW()`
	if _, err := r.pool.Exec(ctx, q, userID, key, value); err != nil {
		return mapError("set metadata "+key, err)
	}
	return nil
}

// DeleteUser borra el usuario; user_meta cae por ON DELETE CASCADE.
func (r *Users) DeleteUser(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM app_user WHERE id = $1`, userID)
	if err != nil {
		return mapError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Metadata devuelve toda la metadata del usuario.
func (r *Users) Metadata(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT meta_key, meta_value FROM user_meta WHERE user_id = $1`, userID)
	if err != nil {
		return nil, mapError("metadata", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, mapError("metadata", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}
