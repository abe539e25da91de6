package mysql

import (
	"context"

	redemptionDomain "gadai-backend/internal/domain/redemption"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RedemptionRepository struct{ db *gorm.DB }

func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

func (r *RedemptionRepository) Create(ctx context.Context, req *redemptionDomain.RedemptionRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RedemptionRepository) GetByRedemptionID(ctx context.Context, redemptionID string) (*redemptionDomain.RedemptionRequest, error) {
	var out redemptionDomain.RedemptionRequest
	res := r.db.WithContext(ctx).Where("redemption_id = ?", redemptionID).First(&out)
	return &out, res.Error
}

func (r *RedemptionRepository) GetByRedemptionIDForUpdate(ctx context.Context, redemptionID string) (*redemptionDomain.RedemptionRequest, error) {
	var out redemptionDomain.RedemptionRequest
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("redemption_id = ?", redemptionID).
		First(&out)
	return &out, res.Error
}

func (r *RedemptionRepository) GetOpenByContractID(ctx context.Context, contractID uint64) (*redemptionDomain.RedemptionRequest, error) {
	var out redemptionDomain.RedemptionRequest
	res := r.db.WithContext(ctx).
		Where("contract_id = ? AND request_status <> ?", contractID, redemptionDomain.StatusCompleted).
		Order("id DESC").
		First(&out)
	return &out, res.Error
}

func (r *RedemptionRepository) UpdateStatusIf(ctx context.Context, id uint64, from, to redemptionDomain.Status, stamps redemptionDomain.FieldUpdates) (bool, error) {
	updates := map[string]any{"request_status": to}
	for k, v := range stamps {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&redemptionDomain.RedemptionRequest{}).
		Where("id = ? AND request_status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
