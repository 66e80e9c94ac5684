package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mindset-app/mindset-backend/internal/model"
	"github.com/mindset-app/mindset-backend/internal/repository"
)

// UserDirectory is the read side of the account store.
type UserDirectory interface {
	IDByEmail(ctx context.Context, email string) (int64, error)
	RoleOf(ctx context.Context, userID int64) (model.OptionalRole, error)
}

// Identity is an authenticated caller.
type Identity struct {
	UserID int64
	Role   model.Role
}

// IsAdmin reports whether the caller may manage events.
func (i Identity) IsAdmin() bool { return i.Role == model.RoleAdmin }

// IdentityResolver maps a token subject to a user id and role.
type IdentityResolver struct {
	users UserDirectory
}

func NewIdentityResolver(users UserDirectory) *IdentityResolver {
	if users == nil {
		panic("nil user directory passed to NewIdentityResolver")
	}
	return &IdentityResolver{users: users}
}

// ResolveUserID returns the user id for principal.  Unknown principals and
// lookup failures are both reported as ErrUnauthorized.
func (r *IdentityResolver) ResolveUserID(ctx context.Context, principal string) (int64, error) {
	if principal == "" {
		return 0, ErrUnauthorized
	}
	id, err := r.users.IDByEmail(ctx, principal)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("resolve user id")
		}
		return 0, fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}
	return id, nil
}

// ResolveRole returns the user's role, or def when none is recorded.
func (r *IdentityResolver) ResolveRole(ctx context.Context, userID int64, def model.Role) (model.Role, error) {
	role, err := r.users.RoleOf(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("resolve role")
		return "", ErrUnauthorized
	}
	return role.Or(def), nil
}

// Resolve performs both lookups with the role default used by the events
// endpoints.
func (r *IdentityResolver) Resolve(ctx context.Context, principal string) (Identity, error) {
	id, err := r.ResolveUserID(ctx, principal)
	if err != nil {
		return Identity{}, err
	}
	role, err := r.ResolveRole(ctx, id, model.RoleUser)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: id, Role: role}, nil
}
