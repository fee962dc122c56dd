// Package password hashea contraseñas locales. Los usuarios creados por login externo
// reciben una contraseña aleatoria que nadie conoce (ver Unusable).
package password

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hasher hashea y verifica contraseñas.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// New devuelve el hasher por nombre: "argon2id" o "bcrypt" (default).
func New(name string) Hasher {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "argon2id", "argon2":
		return Argon2id{Params: Default}
	default:
		return Bcrypt{}
	}
}

// Unusable genera 24 bytes aleatorios, los hashea y descarta el texto plano.
// La cuenta solo puede usarse a través del proveedor externo.
func Unusable(h Hasher) (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("password: random: %w", err)
	}
	return h.Hash(hex.EncodeToString(b))
}
