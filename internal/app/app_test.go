package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/cache"
	"github.com/dropDatabas3/idlink/internal/config"
	"github.com/dropDatabas3/idlink/internal/domain/repository"
	"github.com/dropDatabas3/idlink/internal/store/memory"
)

// newProvider levanta un proveedor con discovery, token y userinfo.
func newProvider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"issuer":%q,"authorization_endpoint":%q,"token_endpoint":%q,"userinfo_endpoint":%q}`,
			srv.URL, srv.URL+"/authorize", srv.URL+"/token", srv.URL+"/userinfo")
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("code_verifier") == "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"user":{"id":"ext-7","email":"ada@example.com","name":"Ada Lovelace","username":"ada"}}`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(providerURL string) *config.Config {
	cfg := config.Default()
	cfg.Provider.ClientID = "cid"
	cfg.Provider.ClientSecret = "secret"
	cfg.Provider.RedirectURI = "https://app.example.com/oauth/callback"
	cfg.Provider.DiscoveryURL = providerURL
	cfg.Server.BaseURL = "https://app.example.com"
	cfg.Server.DefaultRedirect = "/dashboard"
	cfg.Session.Secret = "test-secret"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *memory.Users, *memory.Audit) {
	t.Helper()
	users, events := memory.NewUsers(), memory.NewAudit()
	a, err := New(context.Background(), cfg, Deps{
		Cache:   cache.NewMemory("test", 0),
		Storage: &Storage{Users: users, Meta: users, Audit: events},
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, users, events
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestApp_LoginRoundTrip(t *testing.T) {
	provider := newProvider(t)
	a, users, events := newTestApp(t, testConfig(provider.URL))

	rec := get(a.Handler, "/login")
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, provider.URL+"/authorize", loc.Scheme+"://"+loc.Host+loc.Path)
	require.Equal(t, "S256", loc.Query().Get("code_challenge_method"))
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	rec = get(a.Handler, "/oauth/callback?code=good-code&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "idlink_session" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	require.NotEmpty(t, sessionCookie.Value)

	u, err := users.FindByExternalID(context.Background(), "ext-7")
	require.NoError(t, err)
	require.Equal(t, "ada", u.Username)
	require.Len(t, events.ByType(repository.EventLoginSuccess), 1)

	// replay del callback: el state ya se consumió
	rec = get(a.Handler, "/oauth/callback?code=good-code&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, events.ByType(repository.EventLoginFailure), 1)

	rec = get(a.Handler, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "idlink_login_attempts_total"))

	rec = get(a.Handler, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestApp_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	_, err := New(context.Background(), cfg, Deps{Logger: zap.NewNop()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "provider.client_id")
}

func TestApp_RateLimitOnLogin(t *testing.T) {
	provider := newProvider(t)
	cfg := testConfig(provider.URL)
	cfg.Rate.Max = 2
	a, _, _ := newTestApp(t, cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, get(a.Handler, "/login").Code)
	}
	require.Equal(t, []int{http.StatusFound, http.StatusFound, http.StatusTooManyRequests}, codes)
}
