package appointment

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("appointment type not found")

// Type is a bookable service offered by an organiser, e.g. "30 min consultation".
type Type struct {
	ID              string    `json:"id"`
	OrganiserID     string    `json:"organiserId"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"durationMinutes"`
	PriceCents      int64     `json:"priceCents"`
	Currency        string    `json:"currency"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (t Type) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

func (t Type) OwnedBy(userID string) bool {
	return userID != "" && t.OrganiserID == userID
}

type CreateRequest struct {
	OrganiserID     string `json:"-"`
	Title           string `json:"title" binding:"required,min=3,max=120"`
	Description     string `json:"description" binding:"omitempty,max=1000"`
	DurationMinutes int    `json:"durationMinutes" binding:"required,min=5,max=1440"`
	PriceCents      int64  `json:"priceCents" binding:"min=0"`
	Currency        string `json:"currency" binding:"omitempty,len=3"`
}

// a full update payload
type UpdateRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=120"`
	Description     string `json:"description" binding:"omitempty,max=1000"`
	DurationMinutes int    `json:"durationMinutes" binding:"required,min=5,max=1440"`
	PriceCents      int64  `json:"priceCents" binding:"min=0"`
	Currency        string `json:"currency" binding:"omitempty,len=3"`
}

const DefaultCurrency = "EUR"

func NewFromCreateRequest(req CreateRequest) Type {
	now := time.Now().UTC()

	return Type{
		ID:              uuid.NewString(),
		OrganiserID:     req.OrganiserID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Currency:        normalizeCurrency(req.Currency),
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Apply copies an update onto t and bumps UpdatedAt.
func (t Type) Apply(req UpdateRequest) Type {
	t.Title = strings.TrimSpace(req.Title)
	t.Description = req.Description
	t.DurationMinutes = req.DurationMinutes
	t.PriceCents = req.PriceCents
	t.Currency = normalizeCurrency(req.Currency)
	t.UpdatedAt = time.Now().UTC()
	return t
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency
	}
	return c
}
