package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/geocoder89/bookinghub/internal/observability"
	"github.com/geocoder89/bookinghub/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, password_hash, name, role, active, verified, email_verified, created_at, updated_at`

type UsersRepo struct {
	db DBTX
	observer
}

func NewUsersRepo(db DBTX, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, observer: observer{prom: prom}}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&role,
		&u.Active,
		&u.Verified,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	u.Role = user.Role(role)
	return u, nil
}

// GetByID is the session lookup: one row by primary key.
func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	// not a uuid can never match, and would make postgres raise 22P02
	if !utils.IsUUID(id) {
		return user.User{}, user.ErrNotFound
	}

	var u user.User
	err := r.observe("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		if errors.Is(err, user.ErrNotFound) {
			// a miss is not a DB error
			return nil
		}
		return err
	})
	if err != nil {
		return user.User{}, err
	}
	if u.ID == "" {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := r.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return user.User{}, err
	}
	if u.ID == "" {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash, name string, role user.Role) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.observe("users.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO users (`+userColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role), u.Active, u.Verified, u.EmailVerified, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id, name string) (user.User, error) {
	return r.updateReturning(ctx, "users.update_profile",
		`UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, strings.TrimSpace(name))
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.updateReturning(ctx, "users.update_password",
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, passwordHash)
	return err
}

func (r *UsersRepo) SetRole(ctx context.Context, id string, role user.Role) (user.User, error) {
	return r.updateReturning(ctx, "users.set_role",
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, string(role))
}

func (r *UsersRepo) SetActive(ctx context.Context, id string, active bool) (user.User, error) {
	return r.updateReturning(ctx, "users.set_active",
		`UPDATE users SET active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id, active)
}

// MarkEmailVerified sets both flags; verifying the mailbox verifies the account.
func (r *UsersRepo) MarkEmailVerified(ctx context.Context, id string) (user.User, error) {
	return r.updateReturning(ctx, "users.mark_email_verified",
		`UPDATE users SET email_verified = TRUE, verified = TRUE, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns,
		id)
}

func (r *UsersRepo) updateReturning(ctx context.Context, op, sql string, id string, args ...any) (user.User, error) {
	if !utils.IsUUID(id) {
		return user.User{}, user.ErrNotFound
	}

	var u user.User
	err := r.observe(op, func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx, sql, append([]any{id}, args...)...))
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return user.User{}, err
	}
	if u.ID == "" {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var rows pgx.Rows

	err := r.observe("users.list", func() error {
		var err error
		rows, err = r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}

	return out, rows.Err()
}

func (r *UsersRepo) CountByRole(ctx context.Context) (map[user.Role]int, error) {
	var rows pgx.Rows

	err := r.observe("users.count_by_role", func() error {
		var err error
		rows, err = r.db.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[user.Role]int{}
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[user.Role(role)] = n
	}

	return out, rows.Err()
}
