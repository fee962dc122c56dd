// Package session emite la cookie de sesión local tras un login federado exitoso.
//
// La cookie lleva un JWT HS256 con sub=user_id, email, username y rol.
package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
)

var (
	ErrNoSecret     = errors.New("session: secret is required")
	ErrInvalidToken = errors.New("session: invalid token")
)

// Config de la cookie y del token.
type Config struct {
	CookieName string        `yaml:"cookie"`
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	TTL        time.Duration `yaml:"ttl"`
	Secure     bool          `yaml:"secure"`
	Domain     string        `yaml:"domain"`
	SameSite   string        `yaml:"samesite"`
}

// Claims del token de sesión.
type Claims struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwtv5.RegisteredClaims
}

// Issuer firma y valida tokens de sesión.
type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrNoSecret
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "idlink_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "idlink"
	}
	return &Issuer{cfg: cfg, now: time.Now}, nil
}

func (i *Issuer) CookieName() string { return i.cfg.CookieName }

// Issue arma la cookie de sesión para el usuario.
func (i *Issuer) Issue(u *repository.LocalUser) (*http.Cookie, error) {
	if u == nil || u.ID == "" {
		return nil, errors.New("session: user without id")
	}
	now := i.now().UTC()
	claims := Claims{
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(i.cfg.TTL)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return nil, err
	}
	return BuildCookie(i.cfg.CookieName, signed, i.cfg.Domain, i.cfg.SameSite, i.cfg.Secure, i.cfg.TTL, now), nil
}

// Parse valida firma, issuer y expiración.
func (i *Issuer) Parse(token string) (*Claims, error) {
	var c Claims
	tok, err := jwtv5.ParseWithClaims(token, &c, func(t *jwtv5.Token) (any, error) {
		return []byte(i.cfg.Secret), nil
	},
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(i.cfg.Issuer),
		jwtv5.WithTimeFunc(i.now),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil || !tok.Valid {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return &c, nil
}

// Clear devuelve la cookie que borra la sesión.
func (i *Issuer) Clear() *http.Cookie {
	ck := BuildCookie(i.cfg.CookieName, "", i.cfg.Domain, i.cfg.SameSite, i.cfg.Secure, 0, i.now())
	ck.Expires = time.Unix(0, 0).UTC()
	ck.MaxAge = -1
	return ck
}
