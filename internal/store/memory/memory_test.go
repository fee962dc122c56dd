package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
)

func TestUsers_ExternalIDIsUnique(t *testing.T) {
	ctx := context.Background()
	s := NewUsers()
	a, _ := s.CreateUser(ctx, repository.CreateUserInput{Email: "a@x.com", Username: "a"})
	b, _ := s.CreateUser(ctx, repository.CreateUserInput{Email: "b@x.com", Username: "b"})

	if err := s.SetMetadata(ctx, a.ID, repository.MetaExternalID, "ext-1"); err != nil {
		t.Fatalf("SetMetadata err: %v", err)
	}
	if err := s.SetMetadata(ctx, b.ID, repository.MetaExternalID, "ext-1"); !repository.IsConflict(err) {
		t.Fatalf("err = %v; want ErrConflict", err)
	}
	got, err := s.FindByExternalID(ctx, "ext-1")
	if err != nil || got.ID != a.ID {
		t.Fatalf("FindByExternalID = %+v, %v", got, err)
	}
}

func TestUsers_UsernameConflictIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := NewUsers()
	_, _ = s.CreateUser(ctx, repository.CreateUserInput{Email: "a@x.com", Username: "amin"})
	if _, err := s.CreateUser(ctx, repository.CreateUserInput{Email: "b@x.com", Username: "AMIN"}); !repository.IsConflict(err) {
		t.Fatalf("err = %v; want ErrConflict", err)
	}
}

func TestUsers_FindByEmailReturnsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewUsers()
	first, _ := s.CreateUser(ctx, repository.CreateUserInput{Email: "dup@x.com", Username: "one"})
	_, _ = s.CreateUser(ctx, repository.CreateUserInput{Email: "DUP@x.com", Username: "two"})

	got, err := s.FindByEmail(ctx, "dup@x.com")
	if err != nil || got.ID != first.ID {
		t.Fatalf("FindByEmail = %+v, %v", got, err)
	}
	if _, err := s.FindByEmail(ctx, "none@x.com"); !repository.IsNotFound(err) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestAudit_Prune(t *testing.T) {
	ctx := context.Background()
	a := NewAudit()
	now := time.Now().UTC()
	_ = a.Append(ctx, repository.AuditEvent{Type: repository.EventLoginFailure, CreatedAt: now.Add(-31 * 24 * time.Hour)})
	_ = a.Append(ctx, repository.AuditEvent{Type: repository.EventLoginSuccess, CreatedAt: now})

	n, err := a.Prune(ctx, now.Add(-30*24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("Prune = %d, %v; want 1", n, err)
	}
	if len(a.Events()) != 1 || a.Events()[0].Type != repository.EventLoginSuccess {
		t.Fatalf("unexpected events: %+v", a.Events())
	}
}

func TestUsers_DeleteUser(t *testing.T) {
	ctx := context.Background()
	s := NewUsers()
	a, _ := s.CreateUser(ctx, repository.CreateUserInput{Email: "a@x.com", Username: "a"})
	_ = s.SetMetadata(ctx, a.ID, repository.MetaExternalID, "ext-1")

	if err := s.DeleteUser(ctx, a.ID); err != nil {
		t.Fatalf("DeleteUser err: %v", err)
	}
	if err := s.DeleteUser(ctx, a.ID); !repository.IsNotFound(err) {
		t.Fatalf("second DeleteUser err = %v; want ErrNotFound", err)
	}
	if _, err := s.FindByExternalID(ctx, "ext-1"); !repository.IsNotFound(err) {
		t.Fatalf("FindByExternalID err = %v; want ErrNotFound", err)
	}
	if len(s.All()) != 0 {
		t.Fatal("deleted user still listed")
	}
}
