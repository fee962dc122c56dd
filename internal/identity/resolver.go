// Package identity resuelve un perfil externo a un usuario local:
// match por external_id, luego por email, y si no hay match lo provisiona.
package identity

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idlink/internal/domain/repository"
	"github.com/dropDatabas3/idlink/internal/oauth"
	"github.com/dropDatabas3/idlink/internal/observability/logger"
	"github.com/dropDatabas3/idlink/internal/security/password"
)

// DefaultRole para usuarios provisionados.
const DefaultRole = "subscriber"

// Match indica por qué camino se resolvió el usuario.
type Match string

const (
	MatchExternalID  Match = "external_id"
	MatchEmail       Match = "email"
	MatchProvisioned Match = "provisioned"
)

// Result es el resultado de Resolve. User siempre trae al menos ID y Email.
type Result struct {
	User  *repository.LocalUser
	Match Match
}

// Notifier recibe el aviso de usuario creado (mail al admin, webhooks, etc).
type Notifier interface {
	UserCreated(ctx context.Context, u *repository.LocalUser, p *oauth.ExternalProfile)
}

// Config de la resolución.
type Config struct {
	AutoRegister      bool
	DefaultRole       string
	MaxUsernameProbes int
}

// Deps contiene las dependencias del resolver.
type Deps struct {
	Directory repository.UserDirectory
	Notifier  Notifier        // opcional
	Hasher    password.Hasher // opcional, default bcrypt
	Config    Config
	Logger    *zap.Logger
}

// Resolver implementa la resolución de identidad.
type Resolver struct {
	dir    repository.UserDirectory
	notify Notifier
	hasher password.Hasher
	cfg    Config
	log    *zap.Logger
}

func NewResolver(d Deps) *Resolver {
	if d.Hasher == nil {
		d.Hasher = password.Bcrypt{}
	}
	if d.Config.DefaultRole == "" {
		d.Config.DefaultRole = DefaultRole
	}
	if d.Config.MaxUsernameProbes <= 0 {
		d.Config.MaxUsernameProbes = DefaultMaxUsernameProbes
	}
	if d.Logger == nil {
		d.Logger = logger.L()
	}
	return &Resolver{
		dir:    d.Directory,
		notify: d.Notifier,
		hasher: d.Hasher,
		cfg:    d.Config,
		log:    d.Logger.With(logger.Component("identity.resolver")),
	}
}

// Resolve mapea el perfil a un usuario local.
func (r *Resolver) Resolve(ctx context.Context, p *oauth.ExternalProfile) (*Result, error) {
	if !p.Complete() {
		return nil, oauth.ErrIncompleteProfile
	}
	log := logger.FromOr(ctx, r.log).With(
		logger.Component("identity.resolver"),
		logger.ExternalID(p.ExternalID),
	)
	first, last := splitName(p)
	display := strings.TrimSpace(p.DisplayName)

	// 1) external_id
	u, err := r.dir.FindByExternalID(ctx, p.ExternalID)
	switch {
	case err == nil:
		if err := r.reconcile(ctx, u, display, first, last); err != nil {
			return nil, err
		}
		log.Debug("user matched by external_id", logger.UserID(u.ID))
		return &Result{User: u, Match: MatchExternalID}, nil
	case !repository.IsNotFound(err):
		return nil, oauth.DirectoryError("find_by_external_id", err)
	}

	// 2) email: vincular
	u, err = r.dir.FindByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if err := r.dir.SetMetadata(ctx, u.ID, repository.MetaExternalID, p.ExternalID); err != nil {
			return nil, oauth.DirectoryError("link_external_id", err)
		}
		u.ExternalID = p.ExternalID
		if err := r.reconcile(ctx, u, display, first, last); err != nil {
			return nil, err
		}
		log.Info("user linked by email", logger.UserID(u.ID))
		return &Result{User: u, Match: MatchEmail}, nil
	case !repository.IsNotFound(err):
		return nil, oauth.DirectoryError("find_by_email", err)
	}

	// 3) alta
	if !r.cfg.AutoRegister {
		log.Info("no local user and auto-registration is disabled")
		return nil, oauth.ErrRegistrationDisabled
	}
	u, match, err := r.provision(ctx, p, display, first, last)
	if err != nil {
		return nil, err
	}
	if match == MatchProvisioned {
		log.Info("user provisioned", logger.UserID(u.ID), logger.Username(u.Username))
	}
	return &Result{User: u, Match: match}, nil
}

// reconcile actualiza nombres solo si el valor entrante no está vacío y difiere.
// Nunca pisa un valor local con uno vacío.
func (r *Resolver) reconcile(ctx context.Context, u *repository.LocalUser, display, first, last string) error {
	var in repository.UpdateUserInput
	if display != "" && display != u.DisplayName {
		in.DisplayName = &display
	}
	if first != "" && first != u.FirstName {
		in.FirstName = &first
	}
	if last != "" && last != u.LastName {
		in.LastName = &last
	}
	if in.Empty() {
		return nil
	}
	if err := r.dir.UpdateUser(ctx, u.ID, in); err != nil {
		return oauth.DirectoryError("update_user", err)
	}
	if in.DisplayName != nil {
		u.DisplayName = display
	}
	if in.FirstName != nil {
		u.FirstName = first
	}
	if in.LastName != nil {
		u.LastName = last
	}
	return nil
}

// provision crea el usuario. Si otro login concurrente del mismo external_id ganó,
// borra la cuenta recién creada y devuelve la ganadora con MatchExternalID.
func (r *Resolver) provision(ctx context.Context, p *oauth.ExternalProfile, display, first, last string) (*repository.LocalUser, Match, error) {
	base, err := baseUsername(p)
	if err != nil {
		return nil, "", err
	}
	hash, err := password.Unusable(r.hasher)
	if err != nil {
		return nil, "", err
	}

	in := repository.CreateUserInput{
		Email:        p.Email,
		DisplayName:  display,
		FirstName:    first,
		LastName:     last,
		Role:         r.cfg.DefaultRole,
		PasswordHash: hash,
	}

	var u *repository.LocalUser
	// Un reintento si otra alta concurrente tomó el mismo username entre el probe y el insert.
	for attempt := 0; attempt < 2; attempt++ {
		in.Username, err = uniqueUsername(ctx, r.dir, base, r.cfg.MaxUsernameProbes)
		if err != nil {
			return nil, "", err
		}
		u, err = r.dir.CreateUser(ctx, in)
		if err == nil {
			break
		}
		if !repository.IsConflict(err) {
			return nil, "", oauth.DirectoryError("create_user", err)
		}
		r.log.Warn("username taken concurrently, retrying", logger.Username(in.Username))
	}
	if err != nil {
		return nil, "", oauth.DirectoryError("create_user", err)
	}

	if err := r.dir.SetMetadata(ctx, u.ID, repository.MetaExternalID, p.ExternalID); err != nil {
		if !repository.IsConflict(err) {
			return nil, "", oauth.DirectoryError("set_external_id", err)
		}
		return r.adoptWinner(ctx, u, p.ExternalID)
	}
	u.ExternalID = p.ExternalID
	if p.AvatarURL != "" {
		if err := r.dir.SetMetadata(ctx, u.ID, repository.MetaAvatarURL, p.AvatarURL); err != nil {
			return nil, "", oauth.DirectoryError("set_avatar", err)
		}
	}
	if p.Username != "" {
		if err := r.dir.SetMetadata(ctx, u.ID, repository.MetaExternalUsername, p.Username); err != nil {
			return nil, "", oauth.DirectoryError("set_external_username", err)
		}
	}

	if r.notify != nil {
		r.notify.UserCreated(ctx, u, p)
	}
	return u, MatchProvisioned, nil
}

// adoptWinner borra la cuenta huérfana y devuelve el usuario que ya tiene el external_id.
func (r *Resolver) adoptWinner(ctx context.Context, orphan *repository.LocalUser, externalID string) (*repository.LocalUser, Match, error) {
	log := logger.FromOr(ctx, r.log).With(logger.ExternalID(externalID), logger.UserID(orphan.ID))
	if err := r.dir.DeleteUser(ctx, orphan.ID); err != nil && !repository.IsNotFound(err) {
		log.Error("could not remove orphan account", logger.Err(err))
		return nil, "", oauth.DirectoryError("delete_orphan", err)
	}
	winner, err := r.dir.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, "", oauth.DirectoryError("find_by_external_id", err)
	}
	log.Warn("external_id provisioned concurrently, using existing user", zap.String("winner_id", winner.ID))
	return winner, MatchExternalID, nil
}
