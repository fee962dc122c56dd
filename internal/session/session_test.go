package session

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
)

func newTestIssuer(t *testing.T, now time.Time) *Issuer {
	t.Helper()
	iss, err := NewIssuer(Config{Secret: "s3cret", TTL: time.Hour, SameSite: "strict"})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	iss.now = func() time.Time { return now }
	return iss
}

func TestIssueAndParse(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, now)
	ck, err := iss.Issue(&repository.LocalUser{ID: "u-1", Email: "a@b.c", Username: "amin", Role: "subscriber"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if ck.Name != "idlink_session" || !ck.HttpOnly || ck.SameSite != http.SameSiteStrictMode || ck.MaxAge != 3600 {
		t.Fatalf("unexpected cookie %+v", ck)
	}
	c, err := iss.Parse(ck.Value)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Subject != "u-1" || c.Username != "amin" || c.Role != "subscriber" {
		t.Fatalf("claims = %+v", c)
	}
}

func TestParse_Expired(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, now)
	ck, _ := iss.Issue(&repository.LocalUser{ID: "u-1"})
	iss.now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, err := iss.Parse(ck.Value); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	now := time.Now()
	a := newTestIssuer(t, now)
	b, _ := NewIssuer(Config{Secret: "other"})
	ck, _ := a.Issue(&repository.LocalUser{ID: "u-1"})
	if _, err := b.Parse(ck.Value); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestNewIssuer_RequiresSecret(t *testing.T) {
	if _, err := NewIssuer(Config{}); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildCookie_SameSiteNoneForcesSecure(t *testing.T) {
	ck := BuildCookie("x", "v", "", "none", false, 0, time.Now())
	if !ck.Secure || ck.MaxAge != 0 {
		t.Fatalf("cookie = %+v", ck)
	}
}
