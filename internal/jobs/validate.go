package jobs

import "strings"

// ValidatePayload checks that payload is the struct t expects (value or
// pointer) and that its identifying fields are set.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	blank := func(ss ...string) bool {
		for _, s := range ss {
			if strings.TrimSpace(s) == "" {
				return true
			}
		}
		return false
	}

	switch t {
	case JobBookingConfirmation:
		var p BookingConfirmationPayload
		switch v := payload.(type) {
		case BookingConfirmationPayload:
			p = v
		case *BookingConfirmationPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.BookingID, p.Email) {
			return ErrInvalidJobPayload
		}

	case JobEmailVerification:
		var p EmailVerificationPayload
		switch v := payload.(type) {
		case EmailVerificationPayload:
			p = v
		case *EmailVerificationPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.UserID, p.Email, p.Token) {
			return ErrInvalidJobPayload
		}

	case JobPasswordReset:
		var p PasswordResetPayload
		switch v := payload.(type) {
		case PasswordResetPayload:
			p = v
		case *PasswordResetPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.UserID, p.Email, p.Token) {
			return ErrInvalidJobPayload
		}
	}

	return nil
}
