package redemptionmock

import (
	"context"

	domain "gadai-backend/internal/domain/redemption"
)

// Repo is a function-backed mock that satisfies redemption.Repository.
type Repo struct {
	CreateFn                     func(ctx context.Context, r *domain.RedemptionRequest) error
	GetByRedemptionIDFn          func(ctx context.Context, redemptionID string) (*domain.RedemptionRequest, error)
	GetByRedemptionIDForUpdateFn func(ctx context.Context, redemptionID string) (*domain.RedemptionRequest, error)
	GetOpenByContractIDFn        func(ctx context.Context, contractID uint64) (*domain.RedemptionRequest, error)
	UpdateStatusIfFn             func(ctx context.Context, id uint64, from, to domain.Status, stamps domain.FieldUpdates) (bool, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Create(ctx context.Context, r *domain.RedemptionRequest) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByRedemptionID(ctx context.Context, redemptionID string) (*domain.RedemptionRequest, error) {
	if m.GetByRedemptionIDFn != nil {
		return m.GetByRedemptionIDFn(ctx, redemptionID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByRedemptionIDForUpdate(ctx context.Context, redemptionID string) (*domain.RedemptionRequest, error) {
	if m.GetByRedemptionIDForUpdateFn != nil {
		return m.GetByRedemptionIDForUpdateFn(ctx, redemptionID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetOpenByContractID(ctx context.Context, contractID uint64) (*domain.RedemptionRequest, error) {
	if m.GetOpenByContractIDFn != nil {
		return m.GetOpenByContractIDFn(ctx, contractID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) UpdateStatusIf(ctx context.Context, id uint64, from, to domain.Status, stamps domain.FieldUpdates) (bool, error) {
	if m.UpdateStatusIfFn != nil {
		return m.UpdateStatusIfFn(ctx, id, from, to, stamps)
	}
	return false, nil
}
