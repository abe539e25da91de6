package payment

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	ListByContractID(ctx context.Context, contractID uint64) ([]Payment, error)
	// CompleteIf marks a payment completed only if it has not already reached a
	// terminal status; a completed row never moves backward.
	CompleteIf(ctx context.Context, id uint64, at time.Time) (bool, error)
	// MarkStatusIf transitions pending/processing rows; refuses to touch
	// completed ones.
	MarkStatusIf(ctx context.Context, id uint64, from, to Status) (bool, error)
}
