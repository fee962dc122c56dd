package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/idlink/internal/cache"
)

// DefaultStateTTL es la vida de una autorización pendiente (state -> code_verifier).
const DefaultStateTTL = 10 * time.Minute

const stateKeyPrefix = "oauth:cv:"

// ErrStateNotFound: el state no existe, expiró o ya fue consumido.
var ErrStateNotFound = errors.New("oauth: state not found")

// StateStore guarda las autorizaciones pendientes sobre un cache.Client.
// La consumición es de un solo uso: un callback repetido con el mismo state falla.
type StateStore struct {
	c cache.Client
}

func NewStateStore(c cache.Client) *StateStore {
	return &StateStore{c: c}
}

func stateKey(state string) string { return stateKeyPrefix + state }

// Put guarda state -> verifier. ttl <= 0 equivale a una entrada ya vencida.
func (s *StateStore) Put(ctx context.Context, state, verifier string, ttl time.Duration) error {
	if state == "" {
		return errors.New("oauth: empty state")
	}
	if ttl <= 0 {
		return s.c.Delete(ctx, stateKey(state))
	}
	if err := s.c.Set(ctx, stateKey(state), verifier, ttl); err != nil {
		return fmt.Errorf("oauth: store state: %w", err)
	}
	return nil
}

// PeekConsume devuelve el verifier y borra la entrada en una sola operación.
func (s *StateStore) PeekConsume(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrStateNotFound
	}
	v, err := s.c.Take(ctx, stateKey(state))
	if cache.IsNotFound(err) {
		return "", ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("oauth: consume state: %w", err)
	}
	return v, nil
}

// Has indica si el state está vivo, sin consumirlo.
func (s *StateStore) Has(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	ok, err := s.c.Exists(ctx, stateKey(state))
	if err != nil {
		return false, fmt.Errorf("oauth: lookup state: %w", err)
	}
	return ok, nil
}

// Purge borra todas las autorizaciones pendientes. Los logins en curso deberán reiniciarse.
func (s *StateStore) Purge(ctx context.Context) (int, error) {
	return s.c.DeletePrefix(ctx, stateKeyPrefix)
}
