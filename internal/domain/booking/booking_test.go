package booking

import (
	"testing"
	"time"

	"github.com/geocoder89/bookinghub/internal/domain/appointment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeType() appointment.Type {
	return appointment.Type{
		ID:              "type-1",
		OrganiserID:     "org-1",
		Title:           "Consultation",
		DurationMinutes: 45,
		PriceCents:      5000,
		Currency:        "EUR",
		Active:          true,
	}
}

func TestNewFromCreateRequest(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	start := now.Add(24 * time.Hour)
	customer := "cust-1"

	tests := []struct {
		name    string
		req     CreateRequest
		mutate  func(*appointment.Type)
		wantErr error
	}{
		{
			name: "customer",
			req:  CreateRequest{AppointmentTypeID: "type-1", StartAt: start, CustomerID: &customer},
		},
		{
			name: "guest_with_details",
			req:  CreateRequest{AppointmentTypeID: "type-1", StartAt: start, Name: "Guest", Email: "Guest@Example.com"},
		},
		{
			name:    "guest_without_email",
			req:     CreateRequest{AppointmentTypeID: "type-1", StartAt: start, Name: "Guest"},
			wantErr: ErrGuestDetailsNeeded,
		},
		{
			name:    "start_in_past",
			req:     CreateRequest{AppointmentTypeID: "type-1", StartAt: now.Add(-time.Hour), CustomerID: &customer},
			wantErr: ErrStartInPast,
		},
		{
			name:    "inactive_type",
			req:     CreateRequest{AppointmentTypeID: "type-1", StartAt: start, CustomerID: &customer},
			mutate:  func(at *appointment.Type) { at.Active = false },
			wantErr: ErrInactiveType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := activeType()
			if tt.mutate != nil {
				tt.mutate(&at)
			}

			b, err := NewFromCreateRequest(tt.req, at, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, StatusPending, b.Status)
			assert.Equal(t, PaymentUnpaid, b.PaymentStatus)
			assert.Equal(t, start.Add(45*time.Minute), b.EndAt)
			assert.Equal(t, int64(5000), b.AmountCents)
		})
	}
}

func TestNewFromCreateRequest_NormalizesGuestEmail(t *testing.T) {
	now := time.Now().UTC()
	b, err := NewFromCreateRequest(CreateRequest{
		StartAt: now.Add(time.Hour),
		Name:    " Guest ",
		Email:   " Guest@Example.com ",
	}, activeType(), now)

	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", b.GuestEmail)
	assert.Equal(t, "Guest", b.GuestName)
	assert.True(t, b.IsGuest())
	assert.False(t, b.OwnedBy(""))
}
