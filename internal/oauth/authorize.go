package oauth

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/observability/logger"
)

// AuthorizationRequest es un intento de login: state, verifier y la URL resultante.
// CodeVerifier no sale del servidor hasta el intercambio del code.
type AuthorizationRequest struct {
	State         string
	CodeVerifier  string
	CodeChallenge string
	RedirectURI   string
	ClientID      string
	Scope         string
	URL           string
}

// RequestCache memoiza la AuthorizationRequest dentro de un único request entrante,
// para que varios llamadores del mismo render no generen states distintos.
// Se crea por request y se descarta con él; no es seguro para uso concurrente.
type RequestCache struct {
	req *AuthorizationRequest
}

func NewRequestCache() *RequestCache { return &RequestCache{} }

// StatePutter es lo que el builder necesita del state store.
type StatePutter interface {
	Put(ctx context.Context, state, verifier string, ttl time.Duration) error
}

// Builder arma la URL de autorización con PKCE S256.
type Builder struct {
	cfg    ClientConfig
	states StatePutter
	ttl    time.Duration
	log    *zap.Logger
}

// NewBuilder crea el builder. ttl <= 0 usa DefaultStateTTL.
func NewBuilder(cfg ClientConfig, states StatePutter, ttl time.Duration, log *zap.Logger) *Builder {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if log == nil {
		log = logger.L()
	}
	return &Builder{cfg: cfg, states: states, ttl: ttl, log: log.With(logger.Component("oauth.authorize"))}
}

// Build genera state y verifier, persiste la autorización pendiente y compone la URL.
// Si rc ya tiene una request para este render, la devuelve sin tocar el store.
func (b *Builder) Build(ctx context.Context, rc *RequestCache) (*AuthorizationRequest, error) {
	if rc != nil && rc.req != nil {
		return rc.req, nil
	}

	state, err := GenerateState()
	if err != nil {
		return nil, err
	}
	verifier, err := GenerateVerifier()
	if err != nil {
		return nil, err
	}

	ar := &AuthorizationRequest{
		State:         state,
		CodeVerifier:  verifier,
		CodeChallenge: GenerateChallenge(verifier),
		RedirectURI:   b.cfg.RedirectURI,
		ClientID:      b.cfg.ClientID,
		Scope:         b.cfg.Scope,
	}

	u, err := url.Parse(b.cfg.AuthorizeEndpoint)
	if err != nil {
		return nil, fmt.Errorf("oauth: bad authorize endpoint: %w", err)
	}
	q := u.Query()
	q.Set("client_id", ar.ClientID)
	q.Set("redirect_uri", ar.RedirectURI)
	q.Set("response_type", "code")
	if ar.Scope != "" {
		q.Set("scope", ar.Scope)
	}
	q.Set("state", ar.State)
	q.Set("code_challenge", ar.CodeChallenge)
	q.Set("code_challenge_method", ChallengeMethodS256)
	u.RawQuery = q.Encode()
	ar.URL = u.String()

	if err := b.states.Put(ctx, state, verifier, b.ttl); err != nil {
		return nil, err
	}

	logger.FromOr(ctx, b.log).Debug("authorization request built",
		logger.Component("oauth.authorize"),
		logger.StatePrefix(state),
		logger.ClientID(ar.ClientID),
	)

	if rc != nil {
		rc.req = ar
	}
	return ar, nil
}
