package oauth

import (
	"errors"
	"net/http"
	"time"
)

// DefaultTimeout para las llamadas al token y userinfo endpoint.
const DefaultTimeout = 30 * time.Second

// ClientConfig es la configuración del cliente registrado en el proveedor.
type ClientConfig struct {
	ClientID          string
	ClientSecret      string
	AuthorizeEndpoint string
	TokenEndpoint     string
	UserinfoEndpoint  string
	RedirectURI       string
	Scope             string
	Timeout           time.Duration
}

// Validate revisa los campos mínimos para poder iniciar un login.
func (c ClientConfig) Validate() error {
	switch {
	case c.ClientID == "":
		return errors.New("oauth: client_id is required")
	case c.AuthorizeEndpoint == "":
		return errors.New("oauth: authorize endpoint is required")
	case c.TokenEndpoint == "":
		return errors.New("oauth: token endpoint is required")
	case c.UserinfoEndpoint == "":
		return errors.New("oauth: userinfo endpoint is required")
	case c.RedirectURI == "":
		return errors.New("oauth: redirect_uri is required")
	}
	return nil
}

// NewHTTPClient arma el cliente HTTP compartido por token y userinfo. Sin reintentos.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
