package jobs

import "time"

// Payloads carry everything the notifier needs so the worker never reads
// business tables.

type BookingConfirmationPayload struct {
	BookingID        string    `json:"bookingId"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	AppointmentTitle string    `json:"appointmentTitle"`
	StartAt          time.Time `json:"startAt"`
	RequestID        string    `json:"requestId,omitempty"`
}

type EmailVerificationPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

type PasswordResetPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}
