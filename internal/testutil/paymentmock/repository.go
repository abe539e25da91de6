package paymentmock

import (
	"context"
	"time"

	domain "gadai-backend/internal/domain/payment"
)

// Repo is a function-backed mock that satisfies payment.Repository.
type Repo struct {
	CreateFn           func(ctx context.Context, p *domain.Payment) error
	GetByPaymentIDFn   func(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListByContractIDFn func(ctx context.Context, contractID uint64) ([]domain.Payment, error)
	CompleteIfFn       func(ctx context.Context, id uint64, at time.Time) (bool, error)
	MarkStatusIfFn     func(ctx context.Context, id uint64, from, to domain.Status) (bool, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Create(ctx context.Context, p *domain.Payment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if m.GetByPaymentIDFn != nil {
		return m.GetByPaymentIDFn(ctx, paymentID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListByContractID(ctx context.Context, contractID uint64) ([]domain.Payment, error) {
	if m.ListByContractIDFn != nil {
		return m.ListByContractIDFn(ctx, contractID)
	}
	return nil, nil
}

func (m *Repo) CompleteIf(ctx context.Context, id uint64, at time.Time) (bool, error) {
	if m.CompleteIfFn != nil {
		return m.CompleteIfFn(ctx, id, at)
	}
	return false, nil
}

func (m *Repo) MarkStatusIf(ctx context.Context, id uint64, from, to domain.Status) (bool, error) {
	if m.MarkStatusIfFn != nil {
		return m.MarkStatusIfFn(ctx, id, from, to)
	}
	return false, nil
}
