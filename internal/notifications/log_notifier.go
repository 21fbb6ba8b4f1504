package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes outgoing messages to the structured log instead of
// delivering them.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendBookingConfirmation(ctx context.Context, in BookingConfirmationInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.booking_confirmation",
		"booking_id", in.BookingID,
		"email", in.Email,
		"name", in.Name,
		"appointment", in.AppointmentTitle,
		"start_at", in.StartAt,
	)
	return nil
}

// Tokens only go to debug level; info logs ship off-box.

func (n *LogNotifier) SendVerificationEmail(ctx context.Context, in VerificationEmailInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.email_verification", "user_id", in.UserID, "email", in.Email)
	n.log.DebugContext(ctx, "notification.email_verification.token", "user_id", in.UserID, "token", in.Token)
	return nil
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, in PasswordResetInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.password_reset", "user_id", in.UserID, "email", in.Email)
	n.log.DebugContext(ctx, "notification.password_reset.token", "user_id", in.UserID, "token", in.Token)
	return nil
}
