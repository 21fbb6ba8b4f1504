package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidAmount = errors.New("amount must be positive")

type ChargeRequest struct {
	BookingID   string
	AmountCents int64
	Currency    string
	Email       string
}

type Receipt struct {
	Reference   string    `json:"reference"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	ChargedAt   time.Time `json:"chargedAt"`
}

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Receipt, error)
}

// MockGateway approves every well-formed charge without moving money.
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (MockGateway) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if req.AmountCents <= 0 {
		return Receipt{}, ErrInvalidAmount
	}

	return Receipt{
		Reference:   "pay_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		ChargedAt:   time.Now().UTC(),
	}, nil
}
