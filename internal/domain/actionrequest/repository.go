package actionrequest

import (
	"context"
	"time"
)

type FieldUpdates map[string]any

type Repository interface {
	Create(ctx context.Context, a *ActionRequest) error
	GetByRequestID(ctx context.Context, requestID string) (*ActionRequest, error)
	GetByRequestIDForUpdate(ctx context.Context, requestID string) (*ActionRequest, error)
	// GetActiveByContractID returns the single non-terminal request for a
	// contract, if one exists.
	GetActiveByContractID(ctx context.Context, contractID uint64) (*ActionRequest, error)
	// UpdateStatusIf performs the conditional transition; false means the row
	// was no longer in the expected status.
	UpdateStatusIf(ctx context.Context, id uint64, from, to Status, stamps FieldUpdates) (bool, error)
	// ListStale returns non-terminal requests in the given status created
	// before the cutoff, for the soft-timeout sweep.
	ListStale(ctx context.Context, status Status, before time.Time) ([]ActionRequest, error)
}
