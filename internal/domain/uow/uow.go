package uow

import (
	"context"

	"gadai-backend/internal/domain/actionrequest"
	"gadai-backend/internal/domain/contract"
	"gadai-backend/internal/domain/payment"
	"gadai-backend/internal/domain/redemption"
)

type Repos struct {
	Contracts      contract.Repository
	ActionRequests actionrequest.Repository
	Redemptions    redemption.Repository
	Payments       payment.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the contract row first, then pass it in
	WithinContractTx(ctx context.Context, contractID string, fn func(r Repos, c *contract.Contract) error) error
}
