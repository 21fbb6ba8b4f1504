package booking

import (
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/bookinghub/internal/domain/appointment"
	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

var (
	ErrNotFound           = errors.New("booking not found")
	ErrAlreadyCancelled   = errors.New("booking already cancelled")
	ErrAlreadyPaid        = errors.New("booking already paid")
	ErrInactiveType       = errors.New("appointment type is not bookable")
	ErrGuestDetailsNeeded = errors.New("guest bookings need a name and email")
	ErrStartInPast        = errors.New("booking start must be in the future")
)

type Booking struct {
	ID                string        `json:"id"`
	AppointmentTypeID string        `json:"appointmentTypeId"`
	CustomerID        *string       `json:"customerId,omitempty"`
	GuestName         string        `json:"name"`
	GuestEmail        string        `json:"email"`
	StartAt           time.Time     `json:"startAt"`
	EndAt             time.Time     `json:"endAt"`
	Status            Status        `json:"status"`
	PaymentStatus     PaymentStatus `json:"paymentStatus"`
	PaymentRef        *string       `json:"paymentRef,omitempty"`
	AmountCents       int64         `json:"amountCents"`
	Currency          string        `json:"currency"`
	Notes             string        `json:"notes,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

func (b Booking) IsGuest() bool {
	return b.CustomerID == nil
}

func (b Booking) OwnedBy(userID string) bool {
	return b.CustomerID != nil && userID != "" && *b.CustomerID == userID
}

type CreateRequest struct {
	AppointmentTypeID string    `json:"appointmentTypeId" binding:"required,uuid"`
	StartAt           time.Time `json:"startAt" binding:"required"`
	Name              string    `json:"name" binding:"omitempty,min=2,max=120"`
	Email             string    `json:"email" binding:"omitempty,email"`
	Notes             string    `json:"notes" binding:"omitempty,max=1000"`

	// filled from the resolved identity, never from the body
	CustomerID *string `json:"-"`
}

type PayRequest struct {
	// Guests prove ownership with the email they booked with.
	Email string `json:"email" binding:"omitempty,email"`
}

// NewFromCreateRequest builds a pending booking. endAt is startAt plus the
// type's duration; there is no availability check.
func NewFromCreateRequest(req CreateRequest, t appointment.Type, now time.Time) (Booking, error) {
	if !t.Active {
		return Booking{}, ErrInactiveType
	}

	if req.CustomerID == nil && (strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "") {
		return Booking{}, ErrGuestDetailsNeeded
	}

	if !req.StartAt.After(now) {
		return Booking{}, ErrStartInPast
	}

	start := req.StartAt.UTC()

	return Booking{
		ID:                uuid.NewString(),
		AppointmentTypeID: t.ID,
		CustomerID:        req.CustomerID,
		GuestName:         strings.TrimSpace(req.Name),
		GuestEmail:        strings.ToLower(strings.TrimSpace(req.Email)),
		StartAt:           start,
		EndAt:             start.Add(t.Duration()),
		Status:            StatusPending,
		PaymentStatus:     PaymentUnpaid,
		AmountCents:       t.PriceCents,
		Currency:          t.Currency,
		Notes:             req.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}
