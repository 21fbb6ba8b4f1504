package notifications

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	calls atomic.Int32
	err   error
	block bool
}

func (f *fakeNotifier) send(ctx context.Context) error {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeNotifier) SendBookingConfirmation(ctx context.Context, _ BookingConfirmationInput) error {
	return f.send(ctx)
}

func (f *fakeNotifier) SendVerificationEmail(ctx context.Context, _ VerificationEmailInput) error {
	return f.send(ctx)
}

func (f *fakeNotifier) SendPasswordReset(ctx context.Context, _ PasswordResetInput) error {
	return f.send(ctx)
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	ctx := context.Background()
	assert.Error(t, n.SendBookingConfirmation(ctx, BookingConfirmationInput{}))
	assert.Error(t, n.SendVerificationEmail(ctx, VerificationEmailInput{}))
	assert.Equal(t, "open", n.State())

	err := n.SendPasswordReset(ctx, PasswordResetInput{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})

	clock := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	ctx := context.Background()
	require.Error(t, n.SendBookingConfirmation(ctx, BookingConfirmationInput{}))
	require.Equal(t, "open", n.State())

	clock = clock.Add(2 * time.Minute)
	inner.err = nil

	require.NoError(t, n.SendBookingConfirmation(ctx, BookingConfirmationInput{}))
	assert.Equal(t, "closed", n.State())
}

func TestProtectedNotifier_HalfOpenFailureReopens(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})

	clock := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	ctx := context.Background()
	require.Error(t, n.SendBookingConfirmation(ctx, BookingConfirmationInput{}))

	clock = clock.Add(2 * time.Minute)
	require.Error(t, n.SendBookingConfirmation(ctx, BookingConfirmationInput{}))
	assert.Equal(t, "open", n.State())
	assert.ErrorIs(t, n.SendBookingConfirmation(ctx, BookingConfirmationInput{}), ErrCircuitOpen)
}

func TestProtectedNotifier_Timeout(t *testing.T) {
	inner := &fakeNotifier{block: true}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{Timeout: 20 * time.Millisecond})

	err := n.SendVerificationEmail(context.Background(), VerificationEmailInput{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLogNotifier_RespectsCancelledContext(t *testing.T) {
	n := NewLogNotifier(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.SendBookingConfirmation(ctx, BookingConfirmationInput{}), context.Canceled)
	assert.NoError(t, n.SendPasswordReset(context.Background(), PasswordResetInput{Email: "a@example.com"}))
}
