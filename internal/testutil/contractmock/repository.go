package contractmock

import (
	"context"
	"time"

	domain "gadai-backend/internal/domain/contract"
)

// Repo is a function-backed mock that satisfies contract.Repository.
// Fill in the function fields a test needs; unfilled ones return zero values.
type Repo struct {
	CreateFn                   func(ctx context.Context, c *domain.Contract) error
	GetByIDFn                  func(ctx context.Context, id uint64) (*domain.Contract, error)
	GetByContractIDFn          func(ctx context.Context, contractID string) (*domain.Contract, error)
	GetByContractIDForUpdateFn func(ctx context.Context, contractID string) (*domain.Contract, error)
	GetActiveChildByParentIDFn func(ctx context.Context, parentContractID string) (*domain.Contract, error)
	ListLineageFn              func(ctx context.Context, originalContractID string) ([]domain.Contract, error)
	UpdateFundingStatusIfFn    func(ctx context.Context, id uint64, from, to domain.FundingStatus, stamps domain.FieldUpdates) (bool, error)
	UpdateDeliveryStatusIfFn   func(ctx context.Context, id uint64, from, to domain.DeliveryStatus, stamps domain.FieldUpdates) (bool, error)
	ConfirmPaymentIfFn         func(ctx context.Context, id uint64, at time.Time) (bool, error)
	RejectPaymentIfFn          func(ctx context.Context, id uint64) (bool, error)
	UpdateRedemptionStatusIfFn func(ctx context.Context, id uint64, from, to domain.RedemptionStatus, stamps domain.FieldUpdates) (bool, error)
	CloseIfFn                  func(ctx context.Context, id uint64, at time.Time) (bool, error)
	SaveFn                     func(ctx context.Context, c *domain.Contract) error
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Create(ctx context.Context, c *domain.Contract) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Contract, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByContractID(ctx context.Context, contractID string) (*domain.Contract, error) {
	if m.GetByContractIDFn != nil {
		return m.GetByContractIDFn(ctx, contractID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByContractIDForUpdate(ctx context.Context, contractID string) (*domain.Contract, error) {
	if m.GetByContractIDForUpdateFn != nil {
		return m.GetByContractIDForUpdateFn(ctx, contractID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetActiveChildByParentID(ctx context.Context, parentContractID string) (*domain.Contract, error) {
	if m.GetActiveChildByParentIDFn != nil {
		return m.GetActiveChildByParentIDFn(ctx, parentContractID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListLineage(ctx context.Context, originalContractID string) ([]domain.Contract, error) {
	if m.ListLineageFn != nil {
		return m.ListLineageFn(ctx, originalContractID)
	}
	return nil, nil
}

func (m *Repo) UpdateFundingStatusIf(ctx context.Context, id uint64, from, to domain.FundingStatus, stamps domain.FieldUpdates) (bool, error) {
	if m.UpdateFundingStatusIfFn != nil {
		return m.UpdateFundingStatusIfFn(ctx, id, from, to, stamps)
	}
	return false, nil
}

func (m *Repo) UpdateDeliveryStatusIf(ctx context.Context, id uint64, from, to domain.DeliveryStatus, stamps domain.FieldUpdates) (bool, error) {
	if m.UpdateDeliveryStatusIfFn != nil {
		return m.UpdateDeliveryStatusIfFn(ctx, id, from, to, stamps)
	}
	return false, nil
}

func (m *Repo) ConfirmPaymentIf(ctx context.Context, id uint64, at time.Time) (bool, error) {
	if m.ConfirmPaymentIfFn != nil {
		return m.ConfirmPaymentIfFn(ctx, id, at)
	}
	return false, nil
}

func (m *Repo) RejectPaymentIf(ctx context.Context, id uint64) (bool, error) {
	if m.RejectPaymentIfFn != nil {
		return m.RejectPaymentIfFn(ctx, id)
	}
	return false, nil
}

func (m *Repo) UpdateRedemptionStatusIf(ctx context.Context, id uint64, from, to domain.RedemptionStatus, stamps domain.FieldUpdates) (bool, error) {
	if m.UpdateRedemptionStatusIfFn != nil {
		return m.UpdateRedemptionStatusIfFn(ctx, id, from, to, stamps)
	}
	return false, nil
}

func (m *Repo) CloseIf(ctx context.Context, id uint64, at time.Time) (bool, error) {
	if m.CloseIfFn != nil {
		return m.CloseIfFn(ctx, id, at)
	}
	return false, nil
}

func (m *Repo) Save(ctx context.Context, c *domain.Contract) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, c)
	}
	return nil
}
