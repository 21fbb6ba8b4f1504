package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/bookinghub/internal/domain/user"
)

type UserFinder interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// Resolver turns verified claims into the caller's public identity. Every
// call is one primary-key lookup; nothing is cached between requests.
type Resolver struct {
	users UserFinder
}

func NewResolver(users UserFinder) *Resolver {
	return &Resolver{users: users}
}

func (r *Resolver) Resolve(ctx context.Context, claims *Claims) (user.PublicUser, error) {
	if claims == nil || claims.Subject == "" {
		return user.PublicUser{}, ErrIdentityNotFound
	}

	u, err := r.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.PublicUser{}, ErrIdentityNotFound
		}
		return user.PublicUser{}, fmt.Errorf("resolve identity: %w", err)
	}

	return u.Public(), nil
}
