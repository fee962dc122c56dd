package social

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/audit"
	"github.com/dropDatabas3/idlink/internal/domain/repository"
	"github.com/dropDatabas3/idlink/internal/identity"
	"github.com/dropDatabas3/idlink/internal/metrics"
	"github.com/dropDatabas3/idlink/internal/oauth"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
)

// StateChecker consulta si un state tiene una autorización pendiente (sin consumirla).
type StateChecker interface {
	Has(ctx context.Context, state string) (bool, error)
}

// TokenExchanger canjea code+state por tokens. Consume el verifier.
type TokenExchanger interface {
	Exchange(ctx context.Context, code, state string) (*oauth.TokenResponse, error)
}

// ProfileFetcher trae el perfil del usuario con el access token.
type ProfileFetcher interface {
	Fetch(ctx context.Context, accessToken string) (*oauth.ExternalProfile, error)
}

// IdentityResolver mapea el perfil a un usuario local.
type IdentityResolver interface {
	Resolve(ctx context.Context, p *oauth.ExternalProfile) (*identity.Result, error)
}

// SessionIssuer emite la cookie de sesión local.
type SessionIssuer interface {
	Issue(u *repository.LocalUser) (*http.Cookie, error)
}

// MetadataWriter registra last_login.
type MetadataWriter interface {
	SetMetadata(ctx context.Context, userID, key, value string) error
}

// CallbackDeps son las dependencias explícitas del callback.
type CallbackDeps struct {
	States   StateChecker
	Tokens   TokenExchanger
	Profiles ProfileFetcher
	Resolver IdentityResolver
	Sessions SessionIssuer
	Meta     MetadataWriter   // opcional
	Audit    audit.Sink       // opcional
	Metrics  *metrics.Metrics // opcional
	Redirect *RedirectPolicy  // opcional, default "/"
	Logger   *zap.Logger
	Now      func() time.Time
}

// CallbackInput son los parámetros del redirect de vuelta del proveedor.
type CallbackInput struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
	RedirectTo       string
	ClientIP         string
	UserAgent        string
}

// Outcome es el resultado del intento. Failure es interno; Err conserva la causa.
type Outcome struct {
	State      FlowState
	Failure    FailureReason
	Detail     string // código interno de la causa, ej: incomplete_profile
	Err        error
	User       *repository.LocalUser
	Match      identity.Match
	Cookie     *http.Cookie
	RedirectTo string
	Trail      []FlowState
}

// Succeeded indica si el flujo llegó a SessionEstablished.
func (o *Outcome) Succeeded() bool { return o.State == StateSessionEstablished }

// CallbackService procesa el callback del proveedor.
type CallbackService interface {
	Handle(ctx context.Context, in CallbackInput) *Outcome
}

type callbackService struct {
	d   CallbackDeps
	log *zap.Logger
}

// NewCallbackService crea el servicio. States, Tokens, Profiles, Resolver y Sessions son obligatorios.
func NewCallbackService(d CallbackDeps) CallbackService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Redirect == nil {
		d.Redirect = NewRedirectPolicy("", "/", nil)
	}
	if d.Audit == nil {
		d.Audit = audit.Multi{}
	}
	log := d.Logger
	if log == nil {
		log = logger.L()
	}
	return &callbackService{d: d, log: log.With(logger.Layer("service"), logger.Component("social.callback"))}
}

// attempt acumula el estado de un intento.
type attempt struct {
	out     *Outcome
	in      CallbackInput
	log     *zap.Logger
	profile *oauth.ExternalProfile
}

func (a *attempt) advance(s FlowState) {
	a.out.State = s
	a.out.Trail = append(a.out.Trail, s)
	a.log.Debug("login flow advanced", logger.FlowState(string(s)))
}

func (s *callbackService) Handle(ctx context.Context, in CallbackInput) *Outcome {
	a := &attempt{
		out: &Outcome{State: StateAwaitingCode, Trail: []FlowState{StateAwaitingCode}},
		in:  in,
		log: logger.FromOr(ctx, s.log).With(logger.Component("social.callback"), logger.StatePrefix(in.State)),
	}

	// 1. error del proveedor
	if in.Error != "" {
		return s.fail(ctx, a, ReasonProviderError, in.Error, oauth.ErrProviderError)
	}
	// 2-3. parámetros
	if in.Code == "" {
		return s.fail(ctx, a, ReasonMissingCode, "", oauth.ErrMissingCode)
	}
	if in.State == "" {
		return s.fail(ctx, a, ReasonMissingState, "", oauth.ErrMissingState)
	}

	// 4. CSRF: el state tiene que estar pendiente. Falla cerrado, sin llamar al proveedor.
	ok, err := s.d.States.Has(ctx, in.State)
	if err != nil {
		return s.fail(ctx, a, ReasonInvalidState, "state_lookup_failed", errors.Join(oauth.ErrInvalidState, err))
	}
	if !ok {
		return s.fail(ctx, a, ReasonInvalidState, "", oauth.ErrInvalidState)
	}
	a.advance(StateVerified)

	// 5. token
	start := time.Now()
	tok, err := s.d.Tokens.Exchange(ctx, in.Code, in.State)
	s.d.Metrics.ObserveProviderCall("token", time.Since(start))
	if err != nil {
		// otro request consumió el verifier entre Has y Exchange
		if errors.Is(err, oauth.ErrStateExpiredOrUnknown) {
			return s.fail(ctx, a, ReasonInvalidState, oauth.CodeOf(err), err)
		}
		return s.fail(ctx, a, ReasonTokenExchangeFailed, oauth.CodeOf(err), err)
	}
	a.advance(StateTokenExchanged)

	// 6. perfil
	start = time.Now()
	p, err := s.d.Profiles.Fetch(ctx, tok.AccessToken)
	s.d.Metrics.ObserveProviderCall("userinfo", time.Since(start))
	if err != nil {
		return s.fail(ctx, a, ReasonProfileFetchFailed, oauth.CodeOf(err), err)
	}
	a.profile = p
	a.advance(StateProfileFetched)

	// 7. identidad
	res, err := s.d.Resolver.Resolve(ctx, p)
	if err != nil {
		return s.fail(ctx, a, ReasonIdentityResolutionFailed, oauth.CodeOf(err), err)
	}
	a.out.User = res.User
	a.out.Match = res.Match
	if res.Match == identity.MatchProvisioned {
		s.d.Metrics.UserProvisioned()
	}
	a.advance(StateIdentityResolved)

	// 8. sesión
	ck, err := s.d.Sessions.Issue(res.User)
	if err != nil {
		return s.fail(ctx, a, ReasonSessionFailed, "", err)
	}
	a.out.Cookie = ck

	if s.d.Meta != nil {
		now := s.d.Now().UTC().Format(time.RFC3339)
		if err := s.d.Meta.SetMetadata(ctx, res.User.ID, repository.MetaLastLogin, now); err != nil {
			a.log.Warn("last_login not recorded", logger.UserID(res.User.ID), logger.Err(err))
		}
	}

	a.out.RedirectTo = s.d.Redirect.Sanitize(in.RedirectTo)
	a.advance(StateSessionEstablished)

	s.d.Audit.Emit(ctx, repository.AuditEvent{
		UserID: res.User.ID,
		Type:   repository.EventLoginSuccess,
		Payload: audit.Payload(in.ClientIP, in.UserAgent, map[string]any{
			"external_id": p.ExternalID,
			"email":       res.User.Email,
			"match":       string(res.Match),
		}),
		CreatedAt: s.d.Now().UTC(),
	})
	s.d.Metrics.LoginOutcome(metrics.OutcomeSuccess, string(res.Match))
	a.log.Info("login succeeded",
		logger.UserID(res.User.ID),
		logger.ExternalID(p.ExternalID),
		logger.String("match", string(res.Match)),
	)
	return a.out
}

// fail cierra el intento: un único login_failure, métrica y log.
func (s *callbackService) fail(ctx context.Context, a *attempt, reason FailureReason, detail string, err error) *Outcome {
	a.out.State = StateFailed
	a.out.Trail = append(a.out.Trail, StateFailed)
	a.out.Failure = reason
	a.out.Detail = detail
	a.out.Err = err
	a.out.RedirectTo = s.d.Redirect.Default

	extra := map[string]any{
		"reason": string(reason),
		"detail": detail,
	}
	if a.in.Error != "" {
		extra["provider_error"] = a.in.Error
		extra["provider_error_description"] = a.in.ErrorDescription
	}
	var userID string
	if a.profile != nil {
		extra["external_id"] = a.profile.ExternalID
		extra["email"] = a.profile.Email
	}
	if a.out.User != nil {
		userID = a.out.User.ID
	}
	s.d.Audit.Emit(ctx, repository.AuditEvent{
		UserID:    userID,
		Type:      repository.EventLoginFailure,
		Payload:   audit.Payload(a.in.ClientIP, a.in.UserAgent, extra),
		CreatedAt: s.d.Now().UTC(),
	})
	s.d.Metrics.LoginOutcome(metrics.OutcomeFailure, string(reason))

	fields := []zap.Field{logger.Reason(string(reason)), logger.ClientIP(a.in.ClientIP)}
	if detail != "" {
		fields = append(fields, logger.String("detail", detail))
	}
	if err != nil {
		fields = append(fields, logger.Err(err))
	}
	switch oauth.KindOf(err) {
	case oauth.KindTransport, oauth.KindDirectory:
		a.log.Error("login failed", fields...)
	default:
		a.log.Warn("login failed", fields...)
	}
	return a.out
}
