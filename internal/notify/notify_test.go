package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
	"github.com/dropDatabas3/idlink/internal/oauth"
)

type sent struct{ to, subject, html, text string }

type fakeSender struct {
	out []sent
	err error
}

func (f *fakeSender) Send(to, subject, htmlBody, textBody string) error {
	f.out = append(f.out, sent{to, subject, htmlBody, textBody})
	return f.err
}

func TestMail_UserCreated(t *testing.T) {
	fs := &fakeSender{}
	n := Multi{
		Log{Logger: zap.NewNop()},
		Mail{Sender: fs, Recipients: []string{"admin@example.com", "ops@example.com"}, Logger: zap.NewNop()},
	}
	u := &repository.LocalUser{ID: "u1", Username: "amin2", Email: "amin@example.com", DisplayName: "<b>Amin</b>"}
	n.UserCreated(context.Background(), u, &oauth.ExternalProfile{ExternalID: "ext-9"})

	if len(fs.out) != 2 {
		t.Fatalf("sent %d mails, want 2", len(fs.out))
	}
	m := fs.out[0]
	if m.to != "admin@example.com" || m.subject != subjectUserCreated {
		t.Fatalf("unexpected mail %+v", m)
	}
	if !strings.Contains(m.text, "amin2") || !strings.Contains(m.text, "ext-9") {
		t.Fatalf("text body missing fields: %q", m.text)
	}
	if strings.Contains(m.html, "<b>Amin</b>") {
		t.Fatal("html body not escaped")
	}
}

func TestMail_SendErrorDoesNotStop(t *testing.T) {
	fs := &fakeSender{err: errors.New("down")}
	n := Mail{Sender: fs, Recipients: []string{"a@x", "b@x"}, Logger: zap.NewNop()}
	n.UserCreated(context.Background(), &repository.LocalUser{ID: "u"}, &oauth.ExternalProfile{})
	if len(fs.out) != 2 {
		t.Fatalf("sent %d, want 2", len(fs.out))
	}
}

func TestMail_NoRecipients(t *testing.T) {
	fs := &fakeSender{}
	Mail{Sender: fs}.UserCreated(context.Background(), &repository.LocalUser{}, &oauth.ExternalProfile{})
	if len(fs.out) != 0 {
		t.Fatal("should not send without recipients")
	}
}
