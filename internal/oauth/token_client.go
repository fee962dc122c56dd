package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/observability/logger"
)

// TokenResponse es la respuesta del token endpoint. No se persiste.
type TokenResponse struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int64
	RefreshToken string
	Scope        string
}

type tokenWire struct {
	AccessToken  string  `json:"access_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    flexInt `json:"expires_in"`
	RefreshToken string  `json:"refresh_token"`
	Scope        string  `json:"scope"`
}

// VerifierSource entrega (y consume) el code_verifier de un state.
type VerifierSource interface {
	PeekConsume(ctx context.Context, state string) (string, error)
}

// TokenClient intercambia el authorization code por un access token.
type TokenClient struct {
	cfg    ClientConfig
	states VerifierSource
	http   *http.Client
	log    *zap.Logger
}

// NewTokenClient crea el cliente. httpClient nil usa NewHTTPClient(cfg.Timeout).
func NewTokenClient(cfg ClientConfig, states VerifierSource, httpClient *http.Client, log *zap.Logger) *TokenClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}
	if log == nil {
		log = logger.L()
	}
	return &TokenClient{cfg: cfg, states: states, http: httpClient, log: log.With(logger.Component("oauth.token"))}
}

// Exchange consume el verifier del state y hace el POST al token endpoint.
func (c *TokenClient) Exchange(ctx context.Context, code, state string) (*TokenResponse, error) {
	log := logger.FromOr(ctx, c.log).With(logger.Component("oauth.token"), logger.StatePrefix(state))

	verifier, err := c.states.PeekConsume(ctx, state)
	if errors.Is(err, ErrStateNotFound) {
		return nil, ErrStateExpiredOrUnknown
	}
	if err != nil {
		return nil, wrap(ErrStateExpiredOrUnknown, err)
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("code", code)
	form.Set("code_verifier", verifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, wrap(ErrNetworkFailure, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("token request failed", logger.Endpoint(c.cfg.TokenEndpoint), logger.Err(err))
		return nil, wrap(ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, wrap(ErrNetworkFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		log.Warn("token endpoint rejected exchange", logger.Status(resp.StatusCode), logger.String("provider_error", e.Error))
		return nil, &RejectedError{Status: resp.StatusCode, ProviderError: e.Error}
	}

	var tw tokenWire
	if err := json.Unmarshal(body, &tw); err != nil {
		return nil, wrap(ErrMalformedTokenResponse, err)
	}
	if tw.AccessToken == "" {
		return nil, ErrMalformedTokenResponse
	}

	log.Debug("token exchanged", logger.TokenPrefix(tw.AccessToken))
	return &TokenResponse{
		AccessToken:  tw.AccessToken,
		TokenType:    tw.TokenType,
		ExpiresIn:    int64(tw.ExpiresIn),
		RefreshToken: tw.RefreshToken,
		Scope:        tw.Scope,
	}, nil
}
