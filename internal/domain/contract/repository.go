package contract

import (
	"context"
	"time"
)

// FieldUpdates carries the columns a conditional transition stamps alongside
// the status change.
type FieldUpdates map[string]any

type Repository interface {
	Create(ctx context.Context, c *Contract) error
	GetByID(ctx context.Context, id uint64) (*Contract, error)
	GetByContractID(ctx context.Context, contractID string) (*Contract, error)
	// GetByContractIDForUpdate locks the row (SELECT ... FOR UPDATE) inside a tx.
	GetByContractIDForUpdate(ctx context.Context, contractID string) (*Contract, error)
	// GetActiveChildByParentID is the lineage probe used by crash recovery: the
	// renewal created for a parent, if any.
	GetActiveChildByParentID(ctx context.Context, parentContractID string) (*Contract, error)
	ListLineage(ctx context.Context, originalContractID string) ([]Contract, error)

	// Conditional single-statement transitions. Each returns whether a row in
	// the expected source state was found and updated; false means the guard
	// lost the race or the event is a duplicate; that is a no-op, not an error.
	UpdateFundingStatusIf(ctx context.Context, id uint64, from, to FundingStatus, stamps FieldUpdates) (bool, error)
	UpdateDeliveryStatusIf(ctx context.Context, id uint64, from, to DeliveryStatus, stamps FieldUpdates) (bool, error)
	ConfirmPaymentIf(ctx context.Context, id uint64, at time.Time) (bool, error)
	RejectPaymentIf(ctx context.Context, id uint64) (bool, error)
	UpdateRedemptionStatusIf(ctx context.Context, id uint64, from, to RedemptionStatus, stamps FieldUpdates) (bool, error)
	CloseIf(ctx context.Context, id uint64, at time.Time) (bool, error)

	Save(ctx context.Context, c *Contract) error
}
