// Package memory implementa los repositorios en memoria (desarrollo y tests).
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
)

type userRow struct {
	user repository.LocalUser
	hash string
	meta map[string]string
}

// Users es un repository.UserDirectory en memoria.
type Users struct {
	mu    sync.RWMutex
	byID  map[string]*userRow
	order []string // orden de alta, para "el más antiguo" en FindByEmail
	now   func() time.Time
}

func NewUsers() *Users {
	return &Users{byID: map[string]*userRow{}, now: time.Now}
}

var _ repository.UserDirectory = (*Users)(nil)

func (s *Users) snapshot(r *userRow) *repository.LocalUser {
	u := r.user
	u.ExternalID = r.meta[repository.MetaExternalID]
	return &u
}

func (s *Users) FindByExternalID(ctx context.Context, externalID string) (*repository.LocalUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		r := s.byID[id]
		if r.meta[repository.MetaExternalID] == externalID {
			return s.snapshot(r), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*repository.LocalUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		r := s.byID[id]
		if strings.EqualFold(r.user.Email, email) {
			return s.snapshot(r), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usernameTaken(username), nil
}

func (s *Users) usernameTaken(username string) bool {
	for _, r := range s.byID {
		if strings.EqualFold(r.user.Username, username) {
			return true
		}
	}
	return false
}

func (s *Users) CreateUser(ctx context.Context, in repository.CreateUserInput) (*repository.LocalUser, error) {
	if in.Email == "" || in.Username == "" {
		return nil, repository.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usernameTaken(in.Username) {
		return nil, repository.ErrConflict
	}
	r := &userRow{
		user: repository.LocalUser{
			ID:          uuid.NewString(),
			Email:       in.Email,
			Username:    in.Username,
			DisplayName: in.DisplayName,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			Role:        in.Role,
			CreatedAt:   s.now().UTC(),
		},
		hash: in.PasswordHash,
		meta: map[string]string{},
	}
	s.byID[r.user.ID] = r
	s.order = append(s.order, r.user.ID)
	return s.snapshot(r), nil
}

func (s *Users) UpdateUser(ctx context.Context, userID string, in repository.UpdateUserInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if in.DisplayName != nil {
		r.user.DisplayName = *in.DisplayName
	}
	if in.FirstName != nil {
		r.user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		r.user.LastName = *in.LastName
	}
	return nil
}

func (s *Users) SetMetadata(ctx context.Context, userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if key == repository.MetaExternalID {
		for id, other := range s.byID {
			if id != userID && other.meta[key] == value {
				return repository.ErrConflict
			}
		}
	}
	r.meta[key] = value
	return nil
}

func (s *Users) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, userID)
	for i, id := range s.order {
		if id == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Metadata devuelve la metadata del usuario (copia). Útil en tests y en el CLI.
func (s *Users) Metadata(userID string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]string{}
	if r, ok := s.byID[userID]; ok {
		for k, v := range r.meta {
			out[k] = v
		}
	}
	return out
}

// PasswordHash devuelve el hash guardado ("" si no existe).
func (s *Users) PasswordHash(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.byID[userID]; ok {
		return r.hash
	}
	return ""
}

// All lista los usuarios en orden de alta.
func (s *Users) All() []repository.LocalUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]repository.LocalUser, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.snapshot(s.byID[id]))
	}
	return out
}
