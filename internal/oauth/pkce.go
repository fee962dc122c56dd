package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
)

const (
	// verifierBytes: 32 bytes -> 64 chars hex, dentro del rango 43..128 de RFC 7636.
	verifierBytes = 32
	// stateBytes: 16 bytes -> 32 chars hex.
	stateBytes = 16

	ChallengeMethodS256 = "S256"
)

// randReader se reemplaza en tests para simular una fuente rota.
var randReader io.Reader = rand.Reader

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return "", ErrRandomUnavailable
	}
	return hex.EncodeToString(b), nil
}

// GenerateVerifier genera un code_verifier de 32 bytes aleatorios en hex.
func GenerateVerifier() (string, error) { return randomHex(verifierBytes) }

// GenerateState genera un state CSRF de 16 bytes aleatorios en hex.
func GenerateState() (string, error) { return randomHex(stateBytes) }

// GenerateChallenge calcula base64url(SHA-256(verifier)) sin padding.
func GenerateChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// CheckRandom verifica que la fuente aleatoria funcione. Se llama al arrancar:
// si falla, el servicio no debe levantar.
func CheckRandom() error {
	_, err := randomHex(1)
	return err
}
