package notifications

import (
	"context"
	"time"
)

type BookingConfirmationInput struct {
	BookingID        string
	Email            string
	Name             string
	AppointmentTitle string
	StartAt          time.Time
}

type VerificationEmailInput struct {
	UserID string
	Email  string
	Name   string
	Token  string
}

type PasswordResetInput struct {
	UserID string
	Email  string
	Name   string
	Token  string
}

type Notifier interface {
	SendBookingConfirmation(ctx context.Context, in BookingConfirmationInput) error
	SendVerificationEmail(ctx context.Context, in VerificationEmailInput) error
	SendPasswordReset(ctx context.Context, in PasswordResetInput) error
}
