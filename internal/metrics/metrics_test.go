package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/idlink/internal/cache"
)

func TestLoginOutcomeExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m.LoginOutcome(OutcomeFailure, "invalid_state")
	m.LoginOutcome(OutcomeSuccess, "linked")

	if err := Register(reg, NewCacheCollector(cache.NewMemory("t:", time.Minute))); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)
	for _, want := range []string{
		`idlink_login_attempts_total{outcome="failure",reason="invalid_state"} 1`,
		`idlink_login_attempts_total{outcome="success",reason="linked"} 1`,
		`idlink_cache_keys{driver="memory"} 0`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.LoginOutcome(OutcomeSuccess, "x")
	m.Purged(3)
	m.ObserveProviderCall("token", time.Second)
}
