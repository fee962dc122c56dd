package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt usa golang.org/x/crypto/bcrypt. Cost 0 = bcrypt.DefaultCost.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("password: empty password")
	}
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (b Bcrypt) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
