package pg

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
	pgmigrations "github.com/dropDatabas3/idlink/migrations/postgres"
)

// openTestStore conecta a IDLINK_TEST_PG_DSN y aplica migraciones. Skip si no está.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("IDLINK_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("IDLINK_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, Config{DSN: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = NewMigrator(pgmigrations.FS, pgmigrations.Dir).Run(ctx, s.Pool())
	require.NoError(t, err)
	pending, err := NewMigrator(pgmigrations.FS, pgmigrations.Dir).HasPending(ctx, s.Pool())
	require.NoError(t, err)
	require.False(t, pending)
	return s
}

func TestUsers_Postgres(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	users := s.Users()
	suffix := uuid.NewString()[:8]

	a, err := users.CreateUser(ctx, repository.CreateUserInput{
		Email: "Pg-" + suffix + "@example.com", Username: "pg_" + suffix, Role: "subscriber", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.False(t, a.CreatedAt.IsZero())

	_, err = users.CreateUser(ctx, repository.CreateUserInput{
		Email: "other@example.com", Username: "PG_" + suffix, PasswordHash: "x",
	})
	require.True(t, repository.IsConflict(err), "err = %v", err)

	exists, err := users.UsernameExists(ctx, "PG_"+suffix)
	require.NoError(t, err)
	require.True(t, exists)

	got, err := users.FindByEmail(ctx, "pg-"+suffix+"@EXAMPLE.com")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.Empty(t, got.ExternalID)

	ext := "ext-" + suffix
	require.NoError(t, users.SetMetadata(ctx, a.ID, repository.MetaExternalID, ext))
	got, err = users.FindByExternalID(ctx, ext)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	require.Equal(t, ext, got.ExternalID)

	b, err := users.CreateUser(ctx, repository.CreateUserInput{
		Email: "b-" + suffix + "@example.com", Username: "pgb_" + suffix, PasswordHash: "x",
	})
	require.NoError(t, err)
	require.True(t, repository.IsConflict(users.SetMetadata(ctx, b.ID, repository.MetaExternalID, ext)))

	name := "Nuevo Nombre"
	require.NoError(t, users.UpdateUser(ctx, a.ID, repository.UpdateUserInput{DisplayName: &name}))
	got, err = users.FindByExternalID(ctx, ext)
	require.NoError(t, err)
	require.Equal(t, name, got.DisplayName)

	require.True(t, repository.IsNotFound(users.UpdateUser(ctx, uuid.NewString(), repository.UpdateUserInput{DisplayName: &name})))
	require.True(t, repository.IsNotFound(users.SetMetadata(ctx, uuid.NewString(), repository.MetaLastLogin, "x")))

	_, err = users.FindByExternalID(ctx, "missing-"+suffix)
	require.True(t, repository.IsNotFound(err))

	require.NoError(t, users.DeleteUser(ctx, b.ID))
	require.True(t, repository.IsNotFound(users.DeleteUser(ctx, b.ID)))
	exists, err = users.UsernameExists(ctx, "pgb_"+suffix)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestAudit_Postgres(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	userID := uuid.NewString()
	old := time.Now().Add(-72 * time.Hour).UTC()

	require.NoError(t, s.Audit().Append(ctx, repository.AuditEvent{
		UserID: userID, Type: repository.EventLoginSuccess, Payload: map[string]any{"ip": "10.0.0.1"}, CreatedAt: old,
	}))
	require.NoError(t, s.Audit().Append(ctx, repository.AuditEvent{
		UserID: userID, Type: repository.EventLoginFailure, Payload: map[string]any{"reason": "invalid_state"},
	}))
	require.NoError(t, s.Audit().Append(ctx, repository.AuditEvent{Type: repository.EventLoginFailure}))

	recent, err := s.Audit().Recent(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, repository.EventLoginFailure, recent[0].Type)
	require.Equal(t, "invalid_state", recent[0].Payload["reason"])

	n, err := s.Audit().Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, int64(1))

	recent, err = s.Audit().Recent(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}
