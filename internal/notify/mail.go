package notify

import (
	"bytes"
	"context"
	"html/template"
	texttpl "text/template"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
	"github.com/dropDatabas3/idlink/internal/oauth"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
)

const subjectUserCreated = "Nuevo usuario registrado vía login federado"

var (
	htmlUserCreated = template.Must(template.New("user_created.html").Parse(
		`<p>Se creó el usuario <strong>{{.Username}}</strong> ({{.Email}}).</p>
<p>Nombre: {{.DisplayName}}<br>ID externo: {{.ExternalID}}</p>`))
	textUserCreated = texttpl.Must(texttpl.New("user_created.txt").Parse(
		"Se creó el usuario {{.Username}} ({{.Email}}).\nNombre: {{.DisplayName}}\nID externo: {{.ExternalID}}\n"))
)

type userCreatedVars struct {
	Username    string
	Email       string
	DisplayName string
	ExternalID  string
}

// Mail avisa por correo a los destinatarios configurados (admins).
type Mail struct {
	Sender     Sender
	Recipients []string
	Logger     *zap.Logger
}

func (n Mail) UserCreated(ctx context.Context, u *repository.LocalUser, p *oauth.ExternalProfile) {
	if n.Sender == nil || len(n.Recipients) == 0 {
		return
	}
	log := logger.FromOr(ctx, n.Logger).With(logger.Component("notify.mail"), logger.UserID(u.ID))

	vars := userCreatedVars{Username: u.Username, Email: u.Email, DisplayName: u.DisplayName, ExternalID: p.ExternalID}
	var hb, tb bytes.Buffer
	if err := htmlUserCreated.Execute(&hb, vars); err != nil {
		log.Error("render html failed", logger.Err(err))
		return
	}
	if err := textUserCreated.Execute(&tb, vars); err != nil {
		log.Error("render text failed", logger.Err(err))
		return
	}
	for _, to := range n.Recipients {
		if err := n.Sender.Send(to, subjectUserCreated, hb.String(), tb.String()); err != nil {
			log.Warn("user created mail failed", logger.Err(err))
		}
	}
}
