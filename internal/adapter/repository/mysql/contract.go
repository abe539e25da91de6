package mysql

import (
	"context"
	"time"

	contractDomain "gadai-backend/internal/domain/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContractRepository struct{ db *gorm.DB }

func NewContractRepository(db *gorm.DB) *ContractRepository { return &ContractRepository{db: db} }

func (r *ContractRepository) Create(ctx context.Context, c *contractDomain.Contract) error {
	if err := c.ValidateStatusCombination(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContractRepository) Save(ctx context.Context, c *contractDomain.Contract) error {
	if err := c.ValidateStatusCombination(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *ContractRepository) GetByID(ctx context.Context, id uint64) (*contractDomain.Contract, error) {
	var out contractDomain.Contract
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *ContractRepository) GetByContractID(ctx context.Context, contractID string) (*contractDomain.Contract, error) {
	var out contractDomain.Contract
	res := r.db.WithContext(ctx).Where("contract_id = ?", contractID).First(&out)
	return &out, res.Error
}

func (r *ContractRepository) GetByContractIDForUpdate(ctx context.Context, contractID string) (*contractDomain.Contract, error) {
	var out contractDomain.Contract
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contract_id = ?", contractID).
		First(&out)
	return &out, res.Error
}

func (r *ContractRepository) GetActiveChildByParentID(ctx context.Context, parentContractID string) (*contractDomain.Contract, error) {
	var out contractDomain.Contract
	res := r.db.WithContext(ctx).
		Where("parent_contract_id = ?", parentContractID).
		Order("id DESC").
		First(&out)
	return &out, res.Error
}

func (r *ContractRepository) ListLineage(ctx context.Context, originalContractID string) ([]contractDomain.Contract, error) {
	var out []contractDomain.Contract
	res := r.db.WithContext(ctx).
		Where("original_contract_id = ?", originalContractID).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

// condUpdate is the single conditional-write primitive: one UPDATE guarded by
// the expected current state, applied atomically at the storage layer.
func (r *ContractRepository) condUpdate(ctx context.Context, id uint64, cond string, condArgs []any, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&contractDomain.Contract{}).
		Where("id = ?", id).
		Where(cond, condArgs...).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ContractRepository) UpdateFundingStatusIf(ctx context.Context, id uint64, from, to contractDomain.FundingStatus, stamps contractDomain.FieldUpdates) (bool, error) {
	updates := map[string]any{"funding_status": to}
	for k, v := range stamps {
		updates[k] = v
	}
	return r.condUpdate(ctx, id, "funding_status = ?", []any{from}, updates)
}

func (r *ContractRepository) UpdateDeliveryStatusIf(ctx context.Context, id uint64, from, to contractDomain.DeliveryStatus, stamps contractDomain.FieldUpdates) (bool, error) {
	updates := map[string]any{"delivery_status": to}
	for k, v := range stamps {
		updates[k] = v
	}
	return r.condUpdate(ctx, id, "delivery_status = ?", []any{from}, updates)
}

func (r *ContractRepository) ConfirmPaymentIf(ctx context.Context, id uint64, at time.Time) (bool, error) {
	return r.condUpdate(ctx, id,
		"payment_status <> ? AND contract_status = ?",
		[]any{contractDomain.PaymentCompleted, contractDomain.StatusDraft},
		map[string]any{
			"payment_status":       contractDomain.PaymentCompleted,
			"contract_status":      contractDomain.StatusConfirmed,
			"payment_confirmed_at": at,
		})
}

func (r *ContractRepository) RejectPaymentIf(ctx context.Context, id uint64) (bool, error) {
	return r.condUpdate(ctx, id,
		"funding_status = ? AND payment_status <> ? AND contract_status = ?",
		[]any{contractDomain.FundingPending, contractDomain.PaymentCompleted, contractDomain.StatusDraft},
		map[string]any{"payment_status": contractDomain.PaymentRejected})
}

func (r *ContractRepository) UpdateRedemptionStatusIf(ctx context.Context, id uint64, from, to contractDomain.RedemptionStatus, stamps contractDomain.FieldUpdates) (bool, error) {
	updates := map[string]any{"redemption_status": to}
	for k, v := range stamps {
		updates[k] = v
	}
	return r.condUpdate(ctx, id, "redemption_status = ?", []any{from}, updates)
}

func (r *ContractRepository) CloseIf(ctx context.Context, id uint64, at time.Time) (bool, error) {
	return r.condUpdate(ctx, id,
		"contract_status <> ?", []any{contractDomain.StatusCompleted},
		map[string]any{"contract_status": contractDomain.StatusCompleted, "closed_at": at})
}
