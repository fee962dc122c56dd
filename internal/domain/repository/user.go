package repository

import (
	"context"
	"time"
)

// Claves de metadata de usuario.
const (
	MetaExternalID       = "external_id"       // único por usuario y entre usuarios
	MetaAvatarURL        = "avatar_url"        // foto de perfil del proveedor
	MetaExternalUsername = "external_username" // username del proveedor
	MetaLastLogin        = "last_login"        // RFC3339 del último login
)

// LocalUser es el usuario del directorio local.
type LocalUser struct {
	ID          string
	Email       string
	Username    string
	DisplayName string
	FirstName   string
	LastName    string
	ExternalID  string // metadata external_id, vacío si no está vinculado
	Role        string
	CreatedAt   time.Time
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Email        string
	Username     string
	DisplayName  string
	FirstName    string
	LastName     string
	Role         string
	PasswordHash string
}

// UpdateUserInput contiene los campos actualizables. nil = no tocar.
type UpdateUserInput struct {
	DisplayName *string
	FirstName   *string
	LastName    *string
}

// Empty indica que no hay nada para actualizar.
func (in UpdateUserInput) Empty() bool {
	return in.DisplayName == nil && in.FirstName == nil && in.LastName == nil
}

// UserDirectory es el directorio de usuarios que usa la resolución de identidad.
type UserDirectory interface {
	// FindByExternalID busca por metadata external_id. ErrNotFound si no existe.
	FindByExternalID(ctx context.Context, externalID string) (*LocalUser, error)

	// FindByEmail busca por email (case-insensitive). El email no es único:
	// devuelve el usuario más antiguo. ErrNotFound si no existe.
	FindByEmail(ctx context.Context, email string) (*LocalUser, error)

	// UsernameExists indica si el username ya está tomado.
	UsernameExists(ctx context.Context, username string) (bool, error)

	// CreateUser crea el usuario. ErrConflict si el username ya existe.
	CreateUser(ctx context.Context, in CreateUserInput) (*LocalUser, error)

	// UpdateUser aplica los campos no-nil. ErrNotFound si no existe.
	UpdateUser(ctx context.Context, userID string, in UpdateUserInput) error

	// SetMetadata guarda key=value para el usuario. Para MetaExternalID,
	// ErrConflict si otro usuario ya tiene ese valor.
	SetMetadata(ctx context.Context, userID, key, value string) error

	// DeleteUser borra el usuario y su metadata. ErrNotFound si no existe.
	DeleteUser(ctx context.Context, userID string) error
}
