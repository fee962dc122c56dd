package audit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
	"github.com/dropDatabas3/idlink/internal/store/memory"
)

func TestClientIP_Precedence(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := ClientIP(r); got != "10.0.0.1" {
		t.Fatalf("RemoteAddr: got %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Fatalf("XFF: got %q", got)
	}
	r.Header.Set("Client-IP", "198.51.100.7")
	if got := ClientIP(r); got != "198.51.100.7" {
		t.Fatalf("Client-IP: got %q", got)
	}
}

func TestPayload_SkipsEmptyStrings(t *testing.T) {
	p := Payload("", "ua/1", map[string]any{"reason": "invalid_state", "email": ""})
	if p["reason"] != "invalid_state" || p["user_agent"] != "ua/1" {
		t.Fatalf("payload = %+v", p)
	}
	if _, ok := p["email"]; ok {
		t.Fatal("empty email should be omitted")
	}
	if _, ok := p["ip"]; ok {
		t.Fatal("empty ip should be omitted")
	}
}

func TestRepoSinkAndRetention(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAudit()
	sink := Multi{RepoSink{Repo: repo, Log: zap.NewNop()}, LogSink{Log: zap.NewNop()}}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sink.Emit(ctx, repository.AuditEvent{Type: repository.EventLoginFailure, CreatedAt: now.AddDate(0, 0, -45)})
	sink.Emit(ctx, repository.AuditEvent{Type: repository.EventLoginSuccess, CreatedAt: now.AddDate(0, 0, -1)})

	r := &Retention{Repo: repo, Days: 30, now: func() time.Time { return now }}
	n, err := r.PruneOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("PruneOnce = %d, %v; want 1", n, err)
	}
	if len(repo.ByType(repository.EventLoginSuccess)) != 1 {
		t.Fatal("recent event was pruned")
	}
}
