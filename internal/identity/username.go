package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dropDatabas3/idlink/internal/oauth"
)

// DefaultMaxUsernameProbes: cuántos sufijos secuenciales probamos antes del sufijo aleatorio.
const DefaultMaxUsernameProbes = 100

const randomSuffixAttempts = 5

var errUsernameExhausted = errors.New("identity: could not find a free username")

// baseUsername elige la fuente (username -> display_name -> parte local del email)
// y la normaliza a [a-z0-9_.-]. Vacío => "user_" + 4 dígitos.
func baseUsername(p *oauth.ExternalProfile) (string, error) {
	var src string
	switch {
	case strings.TrimSpace(p.Username) != "":
		src = p.Username
	case strings.TrimSpace(p.DisplayName) != "":
		src = p.DisplayName
	default:
		src = p.Email
		if at := strings.IndexByte(src, '@'); at >= 0 {
			src = src[:at]
		}
	}

	if u := normalizeUsername(src); u != "" {
		return u, nil
	}
	n, err := randomDigits(4)
	if err != nil {
		return "", err
	}
	return "user_" + n, nil
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeUsername saca acentos, pasa a minúsculas y descarta todo lo que no sea [a-z0-9_.-].
func normalizeUsername(s string) string {
	if plain, _, err := transform.String(stripMarks, s); err == nil {
		s = plain
	}
	s = strings.ToLower(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// randomDigits devuelve n dígitos decimales, el primero distinto de cero.
func randomDigits(n int) (string, error) {
	lo := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n-1)), nil)
	span := new(big.Int).Mul(lo, big.NewInt(9))
	v, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", oauth.ErrRandomUnavailable
	}
	return v.Add(v, lo).String(), nil
}

type usernameChecker interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// uniqueUsername prueba base, base1, base2... hasta maxProbes sufijos; después
// base_<6 dígitos aleatorios>.
//
// Check-then-create: dos altas concurrentes con la misma base pueden elegir el mismo
// nombre. El directorio rechaza el duplicado con ErrConflict y el resolver reintenta.
func uniqueUsername(ctx context.Context, dir usernameChecker, base string, maxProbes int) (string, error) {
	if maxProbes <= 0 {
		maxProbes = DefaultMaxUsernameProbes
	}

	candidate := base
	for i := 0; i <= maxProbes; i++ {
		if i > 0 {
			candidate = base + strconv.Itoa(i)
		}
		taken, err := dir.UsernameExists(ctx, candidate)
		if err != nil {
			return "", oauth.DirectoryError("username_exists", err)
		}
		if !taken {
			return candidate, nil
		}
	}

	for i := 0; i < randomSuffixAttempts; i++ {
		digits, err := randomDigits(6)
		if err != nil {
			return "", err
		}
		candidate = base + "_" + digits
		taken, err := dir.UsernameExists(ctx, candidate)
		if err != nil {
			return "", oauth.DirectoryError("username_exists", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", oauth.DirectoryError("username", fmt.Errorf("%w: base %q", errUsernameExhausted, base))
}
