package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/observability/logger"
)

// ExternalProfile es el usuario según el proveedor. ExternalID y Email son obligatorios.
type ExternalProfile struct {
	ExternalID  string
	Email       string
	DisplayName string
	GivenName   string
	FamilyName  string
	Username    string
	AvatarURL   string
}

// Complete indica si el perfil trae los campos mínimos.
func (p *ExternalProfile) Complete() bool {
	return p != nil && strings.TrimSpace(p.ExternalID) != "" && strings.TrimSpace(p.Email) != ""
}

// profileWire acepta los alias que usan distintos proveedores. Los campos opcionales
// con otro tipo JSON (objeto, número) se ignoran.
type profileWire struct {
	ID                flexString `json:"id"`
	Sub               flexString `json:"sub"`
	Email             optString  `json:"email"`
	Name              optString  `json:"name"`
	DisplayName       optString  `json:"display_name"`
	GivenName         optString  `json:"given_name"`
	FirstName         optString  `json:"first_name"`
	FamilyName        optString  `json:"family_name"`
	LastName          optString  `json:"last_name"`
	Username          optString  `json:"username"`
	PreferredUsername optString  `json:"preferred_username"`
	AvatarURL         optString  `json:"avatar_url"`
	ProfilePicture    optString  `json:"profile_picture"`
	Picture           optString  `json:"picture"`

	User nestedProfile `json:"user"`
}

// nestedProfile solo se decodifica si "user" es un objeto.
type nestedProfile struct {
	p *profileWire
}

func (n *nestedProfile) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		n.p = nil
		return nil
	}
	var w profileWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	n.p = &w
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func (w *profileWire) id() string { return firstNonEmpty(string(w.ID), string(w.Sub)) }

func (w *profileWire) complete() bool {
	return w.id() != "" && strings.TrimSpace(string(w.Email)) != ""
}

func (w *profileWire) profile() *ExternalProfile {
	return &ExternalProfile{
		ExternalID:  w.id(),
		Email:       strings.ToLower(strings.TrimSpace(string(w.Email))),
		DisplayName: firstNonEmpty(string(w.Name), string(w.DisplayName)),
		GivenName:   firstNonEmpty(string(w.GivenName), string(w.FirstName)),
		FamilyName:  firstNonEmpty(string(w.FamilyName), string(w.LastName)),
		Username:    firstNonEmpty(string(w.Username), string(w.PreferredUsername)),
		AvatarURL:   firstNonEmpty(string(w.AvatarURL), string(w.ProfilePicture), string(w.Picture)),
	}
}

// ProfileClient lee el perfil del userinfo endpoint con el access token.
type ProfileClient struct {
	cfg  ClientConfig
	http *http.Client
	log  *zap.Logger
}

func NewProfileClient(cfg ClientConfig, httpClient *http.Client, log *zap.Logger) *ProfileClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}
	if log == nil {
		log = logger.L()
	}
	return &ProfileClient{cfg: cfg, http: httpClient, log: log.With(logger.Component("oauth.userinfo"))}
}

// Fetch hace GET al userinfo endpoint con Authorization: Bearer.
// Si id/email no están en el nivel superior, prueba un objeto "user" anidado.
func (c *ProfileClient) Fetch(ctx context.Context, accessToken string) (*ExternalProfile, error) {
	log := logger.FromOr(ctx, c.log).With(logger.Component("oauth.userinfo"), logger.TokenPrefix(accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserinfoEndpoint, nil)
	if err != nil {
		return nil, wrap(ErrNetworkFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("userinfo request failed", logger.Endpoint(c.cfg.UserinfoEndpoint), logger.Err(err))
		return nil, wrap(ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, wrap(ErrNetworkFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn("userinfo rejected", logger.Status(resp.StatusCode))
		return nil, ErrProfileFetchFailed
	}

	var w profileWire
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, wrap(ErrMalformedProfile, err)
	}

	src := &w
	if !w.complete() && w.User.p != nil {
		// Algunos proveedores envuelven el perfil en {"user": {...}}.
		log.Info("userinfo: using nested user object")
		src = w.User.p
	}
	if !src.complete() {
		log.Warn("userinfo: missing id or email")
		return nil, ErrIncompleteProfile
	}

	p := src.profile()
	log.Debug("profile fetched", logger.ExternalID(p.ExternalID), logger.Email(p.Email))
	return p, nil
}
