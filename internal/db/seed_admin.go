package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/bookinghub/internal/config"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/geocoder89/bookinghub/internal/security"
)

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, email, passwordHash, name string, role user.Role) (user.User, error)
	MarkEmailVerified(ctx context.Context, id string) (user.User, error)
}

// EnsureAdminUser creates the configured ADMIN account on first boot.
// An existing account with that email is left untouched.
func EnsureAdminUser(ctx context.Context, users AdminStore, cfg config.Config) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	_, err := users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return false, err
	}

	u, err := users.Create(ctx, email, hash, cfg.AdminName, user.RoleAdmin)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			// another instance won the race
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}

	if _, err := users.MarkEmailVerified(ctx, u.ID); err != nil {
		return true, fmt.Errorf("verify admin: %w", err)
	}

	return true, nil
}
