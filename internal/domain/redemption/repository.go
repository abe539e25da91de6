package redemption

import "context"

type FieldUpdates map[string]any

type Repository interface {
	Create(ctx context.Context, r *RedemptionRequest) error
	GetByRedemptionID(ctx context.Context, redemptionID string) (*RedemptionRequest, error)
	GetByRedemptionIDForUpdate(ctx context.Context, redemptionID string) (*RedemptionRequest, error)
	GetOpenByContractID(ctx context.Context, contractID uint64) (*RedemptionRequest, error)
	UpdateStatusIf(ctx context.Context, id uint64, from, to Status, stamps FieldUpdates) (bool, error)
}
