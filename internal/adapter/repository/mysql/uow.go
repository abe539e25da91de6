package mysql

import (
	"context"

	"gadai-backend/internal/domain/contract"
	"gadai-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Contracts:      &ContractRepository{db: tx},
		ActionRequests: &ActionRequestRepository{db: tx},
		Redemptions:    &RedemptionRepository{db: tx},
		Payments:       &PaymentRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinContractTx(ctx context.Context, contractID string, fn func(r uow.Repos, c *contract.Contract) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the contract row up-front to prevent races
		c, err := r.Contracts.GetByContractIDForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		return fn(r, c)
	})
}
