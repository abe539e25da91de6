package requestmock

import (
	"context"
	"time"

	domain "gadai-backend/internal/domain/actionrequest"
)

// Repo is a function-backed mock that satisfies actionrequest.Repository.
type Repo struct {
	CreateFn                  func(ctx context.Context, a *domain.ActionRequest) error
	GetByRequestIDFn          func(ctx context.Context, requestID string) (*domain.ActionRequest, error)
	GetByRequestIDForUpdateFn func(ctx context.Context, requestID string) (*domain.ActionRequest, error)
	GetActiveByContractIDFn   func(ctx context.Context, contractID uint64) (*domain.ActionRequest, error)
	UpdateStatusIfFn          func(ctx context.Context, id uint64, from, to domain.Status, stamps domain.FieldUpdates) (bool, error)
	ListStaleFn               func(ctx context.Context, status domain.Status, before time.Time) ([]domain.ActionRequest, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Create(ctx context.Context, a *domain.ActionRequest) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByRequestID(ctx context.Context, requestID string) (*domain.ActionRequest, error) {
	if m.GetByRequestIDFn != nil {
		return m.GetByRequestIDFn(ctx, requestID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*domain.ActionRequest, error) {
	if m.GetByRequestIDForUpdateFn != nil {
		return m.GetByRequestIDForUpdateFn(ctx, requestID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetActiveByContractID(ctx context.Context, contractID uint64) (*domain.ActionRequest, error) {
	if m.GetActiveByContractIDFn != nil {
		return m.GetActiveByContractIDFn(ctx, contractID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) UpdateStatusIf(ctx context.Context, id uint64, from, to domain.Status, stamps domain.FieldUpdates) (bool, error) {
	if m.UpdateStatusIfFn != nil {
		return m.UpdateStatusIfFn(ctx, id, from, to, stamps)
	}
	return false, nil
}

func (m *Repo) ListStale(ctx context.Context, status domain.Status, before time.Time) ([]domain.ActionRequest, error) {
	if m.ListStaleFn != nil {
		return m.ListStaleFn(ctx, status, before)
	}
	return nil, nil
}
