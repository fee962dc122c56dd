package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/audit"
	"github.com/dropDatabas3/idlink/internal/cache"
	"github.com/dropDatabas3/idlink/internal/domain/repository"
	"github.com/dropDatabas3/idlink/internal/identity"
	"github.com/dropDatabas3/idlink/internal/oauth"
	"github.com/dropDatabas3/idlink/internal/security/password"
	"github.com/dropDatabas3/idlink/internal/session"
	"github.com/dropDatabas3/idlink/internal/store/memory"
)

// fakeProvider simula token endpoint y userinfo.
type fakeProvider struct {
	srv          *httptest.Server
	tokenCalls   atomic.Int32
	profileCalls atomic.Int32
	tokenStatus  int
	profileBody  string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{
		tokenStatus: http.StatusOK,
		profileBody: `{"id":"ext-42","email":"Amin@Example.com","name":"Amin Rahimi","username":"amin"}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		fp.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if fp.tokenStatus != http.StatusOK {
			w.WriteHeader(fp.tokenStatus)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		_ = r.ParseForm()
		if r.PostForm.Get("code_verifier") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/api/user", func(w http.ResponseWriter, r *http.Request) {
		fp.profileCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, fp.profileBody)
	})
	fp.srv = httptest.NewServer(mux)
	t.Cleanup(fp.srv.Close)
	return fp
}

type harness struct {
	provider *fakeProvider
	states   *oauth.StateStore
	builder  *oauth.Builder
	users    *memory.Users
	events   *memory.Audit
	sessions *session.Issuer
	svc      CallbackService
}

func newHarness(t *testing.T, autoRegister bool) *harness {
	t.Helper()
	fp := newFakeProvider(t)
	cfg := oauth.ClientConfig{
		ClientID:          "cid",
		ClientSecret:      "secret",
		AuthorizeEndpoint: fp.srv.URL + "/oauth/authorize",
		TokenEndpoint:     fp.srv.URL + "/oauth/token",
		UserinfoEndpoint:  fp.srv.URL + "/api/user",
		RedirectURI:       "https://app.example.com/oauth/callback",
		Scope:             "view-user",
	}
	states := oauth.NewStateStore(cache.NewMemory("test:", time.Minute))
	users := memory.NewUsers()
	events := memory.NewAudit()
	sessions, err := session.NewIssuer(session.Config{Secret: "test-secret"})
	require.NoError(t, err)

	log := zap.NewNop()
	svc := NewCallbackService(CallbackDeps{
		States:   states,
		Tokens:   oauth.NewTokenClient(cfg, states, fp.srv.Client(), log),
		Profiles: oauth.NewProfileClient(cfg, fp.srv.Client(), log),
		Resolver: identity.NewResolver(identity.Deps{
			Directory: users,
			Hasher:    password.Bcrypt{Cost: 4},
			Config:    identity.Config{AutoRegister: autoRegister},
			Logger:    log,
		}),
		Sessions: sessions,
		Meta:     users,
		Audit:    audit.RepoSink{Repo: events, Log: log},
		Redirect: NewRedirectPolicy("https://app.example.com", "/dashboard", []string{"shop.example.com"}),
		Logger:   log,
		Now:      func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) },
	})
	return &harness{
		provider: fp,
		states:   states,
		builder:  oauth.NewBuilder(cfg, states, 0, log),
		users:    users,
		events:   events,
		sessions: sessions,
		svc:      svc,
	}
}

func (h *harness) begin(t *testing.T) string {
	t.Helper()
	req, err := h.builder.Build(context.Background(), oauth.NewRequestCache())
	require.NoError(t, err)
	return req.State
}

func TestCallback_EndToEndSuccess(t *testing.T) {
	h := newHarness(t, true)
	h.provider.profileBody = `{"id":"ext-42","email":"Amin@Example.com","name":"A B","username":"amin"}`
	ctx := context.Background()
	state := h.begin(t)

	out := h.svc.Handle(ctx, CallbackInput{
		Code:       "the-code",
		State:      state,
		RedirectTo: "https://shop.example.com/cart",
		ClientIP:   "203.0.113.5",
		UserAgent:  "test-agent",
	})
	require.True(t, out.Succeeded(), "failure=%s err=%v", out.Failure, out.Err)
	require.Equal(t, []FlowState{
		StateAwaitingCode, StateVerified, StateTokenExchanged,
		StateProfileFetched, StateIdentityResolved, StateSessionEstablished,
	}, out.Trail)
	require.Equal(t, identity.MatchProvisioned, out.Match)
	require.Equal(t, "https://shop.example.com/cart", out.RedirectTo)

	require.NotNil(t, out.Cookie)
	claims, err := h.sessions.Parse(out.Cookie.Value)
	require.NoError(t, err)
	require.Equal(t, out.User.ID, claims.Subject)
	require.Equal(t, "A", out.User.FirstName)
	require.Equal(t, "B", out.User.LastName)
	require.Equal(t, "amin@example.com", out.User.Email)

	meta := h.users.Metadata(out.User.ID)
	require.Equal(t, "ext-42", meta[repository.MetaExternalID])
	require.Equal(t, "2026-05-01T10:00:00Z", meta[repository.MetaLastLogin])

	ok := h.events.ByType(repository.EventLoginSuccess)
	require.Len(t, ok, 1)
	require.Equal(t, out.User.ID, ok[0].UserID)
	require.Equal(t, "203.0.113.5", ok[0].Payload["ip"])
	require.Equal(t, "provisioned", ok[0].Payload["match"])
	require.Empty(t, h.events.ByType(repository.EventLoginFailure))

	// el state es de un solo uso
	again := h.svc.Handle(ctx, CallbackInput{Code: "the-code", State: state})
	require.Equal(t, ReasonInvalidState, again.Failure)
	require.EqualValues(t, 1, h.provider.tokenCalls.Load())
}

func TestCallback_ForgedStateNeverCallsProvider(t *testing.T) {
	h := newHarness(t, true)
	_ = h.begin(t)

	out := h.svc.Handle(context.Background(), CallbackInput{Code: "c", State: "forged-state"})
	require.Equal(t, StateFailed, out.State)
	require.Equal(t, ReasonInvalidState, out.Failure)
	require.True(t, errors.Is(out.Err, oauth.ErrInvalidState))
	require.Equal(t, "/dashboard", out.RedirectTo)
	require.Nil(t, out.Cookie)
	require.Zero(t, h.provider.tokenCalls.Load())
	require.Len(t, h.events.ByType(repository.EventLoginFailure), 1)
	require.Equal(t, "invalid_state", h.events.ByType(repository.EventLoginFailure)[0].Payload["reason"])
}

func TestCallback_EarlyFailures(t *testing.T) {
	cases := []struct {
		name string
		in   CallbackInput
		want FailureReason
	}{
		{"provider error wins", CallbackInput{Error: "access_denied", Code: "c", State: "s"}, ReasonProviderError},
		{"missing code", CallbackInput{State: "s"}, ReasonMissingCode},
		{"missing state", CallbackInput{Code: "c"}, ReasonMissingState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, true)
			out := h.svc.Handle(context.Background(), tc.in)
			require.Equal(t, tc.want, out.Failure)
			require.Equal(t, []FlowState{StateAwaitingCode, StateFailed}, out.Trail)
			require.Zero(t, h.provider.tokenCalls.Load())
			require.Len(t, h.events.Events(), 1)
			require.Equal(t, repository.EventLoginFailure, h.events.Events()[0].Type)
		})
	}
}

func TestCallback_TokenRejected(t *testing.T) {
	h := newHarness(t, true)
	h.provider.tokenStatus = http.StatusBadRequest
	state := h.begin(t)

	out := h.svc.Handle(context.Background(), CallbackInput{Code: "c", State: state})
	require.Equal(t, ReasonTokenExchangeFailed, out.Failure)
	var rej *oauth.RejectedError
	require.True(t, errors.As(out.Err, &rej))
	require.Equal(t, http.StatusBadRequest, rej.Status)
	require.Zero(t, h.provider.profileCalls.Load())
	require.Len(t, h.events.ByType(repository.EventLoginFailure), 1)

	// el verifier se consumió aunque el proveedor rechazó
	has, err := h.states.Has(context.Background(), state)
	require.NoError(t, err)
	require.False(t, has)
}

func TestCallback_IncompleteProfile(t *testing.T) {
	h := newHarness(t, true)
	h.provider.profileBody = `{"id":"ext-42"}`
	state := h.begin(t)

	out := h.svc.Handle(context.Background(), CallbackInput{Code: "c", State: state})
	require.Equal(t, ReasonProfileFetchFailed, out.Failure)
	require.Empty(t, h.users.All())
	require.Len(t, h.events.ByType(repository.EventLoginFailure), 1)
}

func TestCallback_RegistrationDisabled(t *testing.T) {
	h := newHarness(t, false)
	state := h.begin(t)

	out := h.svc.Handle(context.Background(), CallbackInput{Code: "c", State: state})
	require.Equal(t, ReasonIdentityResolutionFailed, out.Failure)
	require.Equal(t, "registration_disabled", out.Detail)
	evs := h.events.ByType(repository.EventLoginFailure)
	require.Len(t, evs, 1)
	require.Equal(t, "ext-42", evs[0].Payload["external_id"])
}

type failingSessions struct{}

func (failingSessions) Issue(*repository.LocalUser) (*http.Cookie, error) {
	return nil, errors.New("signer down")
}

func TestCallback_SessionFailure(t *testing.T) {
	h := newHarness(t, true)
	svc := h.svc.(*callbackService)
	svc.d.Sessions = failingSessions{}
	state := h.begin(t)

	out := h.svc.Handle(context.Background(), CallbackInput{Code: "c", State: state})
	require.Equal(t, ReasonSessionFailed, out.Failure)
	require.NotNil(t, out.User)
	evs := h.events.ByType(repository.EventLoginFailure)
	require.Len(t, evs, 1)
	require.Equal(t, out.User.ID, evs[0].UserID)
	require.Empty(t, h.events.ByType(repository.EventLoginSuccess))
}
