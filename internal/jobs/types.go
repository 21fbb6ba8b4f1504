package jobs

type JobType string

const (
	JobBookingConfirmation JobType = "booking.confirmation"
	JobEmailVerification   JobType = "auth.email_verification"
	JobPasswordReset       JobType = "auth.password_reset"
)

func (t JobType) IsValid() bool {
	switch t {
	case JobBookingConfirmation, JobEmailVerification, JobPasswordReset:
		return true
	default:
		return false
	}
}

// Priorities for the claim order; account mail beats booking receipts.
const (
	PriorityDefault = 0
	PriorityAccount = 10
)
