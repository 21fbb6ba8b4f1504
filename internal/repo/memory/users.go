package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/google/uuid"
)

// UsersRepo is an in-process user directory with the same method set as
// postgres.UsersRepo. Used by tests and local runs without a database.
type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User
	byEmail map[string]string
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.items[id], nil
}

func (r *UsersRepo) Create(_ context.Context, email, passwordHash, name string, role user.Role) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

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

	r.items[u.ID] = u
	r.byEmail[email] = u.ID
	return u, nil
}

// Put stores u as-is, replacing any user with the same id.
func (r *UsersRepo) Put(u user.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.items[u.ID]; ok {
		delete(r.byEmail, old.Email)
	}
	r.items[u.ID] = u
	r.byEmail[u.Email] = u.ID
}

// Delete removes a user; tokens issued to it stop resolving.
func (r *UsersRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.items[id]; ok {
		delete(r.byEmail, u.Email)
		delete(r.items, id)
	}
}

func (r *UsersRepo) update(id string, fn func(*user.User)) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u
	return u, nil
}

func (r *UsersRepo) UpdateProfile(_ context.Context, id, name string) (user.User, error) {
	return r.update(id, func(u *user.User) { u.Name = strings.TrimSpace(name) })
}

func (r *UsersRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	_, err := r.update(id, func(u *user.User) { u.PasswordHash = passwordHash })
	return err
}

func (r *UsersRepo) SetRole(_ context.Context, id string, role user.Role) (user.User, error) {
	return r.update(id, func(u *user.User) { u.Role = role })
}

func (r *UsersRepo) SetActive(_ context.Context, id string, active bool) (user.User, error) {
	return r.update(id, func(u *user.User) { u.Active = active })
}

func (r *UsersRepo) MarkEmailVerified(_ context.Context, id string) (user.User, error) {
	return r.update(id, func(u *user.User) {
		u.EmailVerified = true
		u.Verified = true
	})
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	out := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, u)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *UsersRepo) CountByRole(_ context.Context) (map[user.Role]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := map[user.Role]int{}
	for _, u := range r.items {
		out[u.Role]++
	}
	return out, nil
}
