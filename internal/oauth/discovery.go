package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const wellKnownPath = "/.well-known/openid-configuration"

// DiscoveryDocument son los campos del documento de discovery que usamos para
// pre-cargar la configuración. El flujo de login no lo consulta en runtime.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

// Discover descarga el documento. Si rawURL no apunta a .well-known se le agrega el path estándar.
func Discover(ctx context.Context, httpClient *http.Client, rawURL string) (*DiscoveryDocument, error) {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	u := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if u == "" {
		return nil, fmt.Errorf("oauth: empty discovery url")
	}
	if !strings.Contains(u, "/.well-known/") {
		u += wellKnownPath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, wrap(ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth: discovery http %d", resp.StatusCode)
	}
	var doc DiscoveryDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("oauth: decode discovery: %w", err)
	}
	return &doc, nil
}

// Apply completa los endpoints vacíos de cfg. No pisa valores configurados a mano.
func (d *DiscoveryDocument) Apply(cfg *ClientConfig) {
	if cfg.AuthorizeEndpoint == "" {
		cfg.AuthorizeEndpoint = d.AuthorizationEndpoint
	}
	if cfg.TokenEndpoint == "" {
		cfg.TokenEndpoint = d.TokenEndpoint
	}
	if cfg.UserinfoEndpoint == "" {
		cfg.UserinfoEndpoint = d.UserinfoEndpoint
	}
}
