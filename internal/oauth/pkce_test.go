package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"testing"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]+$`)

func TestGenerateVerifier_EntropyAndCharset(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		v, err := GenerateVerifier()
		if err != nil {
			t.Fatalf("GenerateVerifier err: %v", err)
		}
		if len(v) != 64 || !hexRe.MatchString(v) {
			t.Fatalf("verifier %q: want 64 hex chars", v)
		}
		if seen[v] {
			t.Fatalf("duplicate verifier %q", v)
		}
		seen[v] = true
	}
}

func TestGenerateState_Length(t *testing.T) {
	s, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState err: %v", err)
	}
	if len(s) != 32 || !hexRe.MatchString(s) {
		t.Fatalf("state %q: want 32 hex chars", s)
	}
}

func TestGenerateChallenge_MatchesReference(t *testing.T) {
	for i := 0; i < 20; i++ {
		v, _ := GenerateVerifier()
		sum := sha256.Sum256([]byte(v))
		want := base64.RawURLEncoding.EncodeToString(sum[:])

		got := GenerateChallenge(v)
		if got != want {
			t.Fatalf("challenge mismatch: got %q want %q", got, want)
		}
		if got != GenerateChallenge(v) {
			t.Fatal("challenge is not deterministic")
		}
		if strings.ContainsAny(got, "=+/") {
			t.Fatalf("challenge %q is not unpadded base64url", got)
		}
	}
}

func TestGenerateChallenge_RFC7636Vector(t *testing.T) {
	// Apéndice B de RFC 7636.
	got := GenerateChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
	if got != "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM" {
		t.Fatalf("got %q", got)
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestGenerate_RandomUnavailable(t *testing.T) {
	orig := randReader
	randReader = brokenReader{}
	defer func() { randReader = orig }()

	if _, err := GenerateVerifier(); !errors.Is(err, ErrRandomUnavailable) {
		t.Fatalf("err = %v; want ErrRandomUnavailable", err)
	}
	if err := CheckRandom(); !errors.Is(err, ErrRandomUnavailable) {
		t.Fatalf("CheckRandom err = %v", err)
	}
}
