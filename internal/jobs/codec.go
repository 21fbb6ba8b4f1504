package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/geocoder89/bookinghub/internal/domain/job"
)

// EncodePayload validates payload against t and marshals it.
func EncodePayload(t JobType, payload any) (json.RawMessage, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals j.Payload into the typed struct for j.Type and
// returns it by value.
func DecodePayload(j job.Job) (any, error) {
	t := JobType(j.Type)
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	var out any
	var err error

	switch t {
	case JobBookingConfirmation:
		var p BookingConfirmationPayload
		err = json.Unmarshal(j.Payload, &p)
		out = p
	case JobEmailVerification:
		var p EmailVerificationPayload
		err = json.Unmarshal(j.Payload, &p)
		out = p
	case JobPasswordReset:
		var p PasswordResetPayload
		err = json.Unmarshal(j.Payload, &p)
		out = p
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}
	if err := ValidatePayload(t, out); err != nil {
		return nil, err
	}

	return out, nil
}

// NewCreateRequest encodes payload into a ready-to-insert job request.
func NewCreateRequest(t JobType, payload any, idempotencyKey string, userID *string) (job.CreateRequest, error) {
	raw, err := EncodePayload(t, payload)
	if err != nil {
		return job.CreateRequest{}, err
	}

	req := job.CreateRequest{
		Type:     string(t),
		Payload:  raw,
		Priority: PriorityDefault,
		UserID:   userID,
	}
	if t == JobEmailVerification || t == JobPasswordReset {
		req.Priority = PriorityAccount
	}
	if idempotencyKey != "" {
		req.IdempotencyKey = &idempotencyKey
	}

	return req, nil
}
