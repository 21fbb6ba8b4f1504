package user

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleCustomer  Role = "CUSTOMER"
	RoleOrganiser Role = "ORGANISER"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleOrganiser, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole accepts any casing, "organizer" and "administrator".
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CUSTOMER":
		return RoleCustomer, true
	case "ORGANISER", "ORGANIZER":
		return RoleOrganiser, true
	case "ADMIN", "ADMINISTRATOR":
		return RoleAdmin, true
	default:
		return "", false
	}
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // never expose hash in JSON
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	Active        bool      `json:"active"`
	Verified      bool      `json:"verified"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PublicUser is what gets attached to a request and returned to clients.
// It has no password field at all, so no code path can leak the hash.
type PublicUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	Active        bool      `json:"active"`
	Verified      bool      `json:"verified"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		Active:        u.Active,
		Verified:      u.Verified,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func PublicList(users []User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,pwbytes"`
	Name     string `json:"name" binding:"required,min=2,max=120"`
}

// Normalize runs before validation so surrounding whitespace and case in
// the email never fail the email rule.
func (r *RegisterRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (r *LoginRequest) Normalize() { r.Email = NormalizeEmail(r.Email) }

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,min=2,max=120"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,pwbytes"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (r *ForgotPasswordRequest) Normalize() { r.Email = NormalizeEmail(r.Email) }

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,pwbytes"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type SetStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}
