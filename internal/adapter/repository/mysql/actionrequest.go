package mysql

import (
	"context"
	"time"

	requestDomain "gadai-backend/internal/domain/actionrequest"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActionRequestRepository struct{ db *gorm.DB }

func NewActionRequestRepository(db *gorm.DB) *ActionRequestRepository {
	return &ActionRequestRepository{db: db}
}

func (r *ActionRequestRepository) Create(ctx context.Context, a *requestDomain.ActionRequest) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ActionRequestRepository) GetByRequestID(ctx context.Context, requestID string) (*requestDomain.ActionRequest, error) {
	var out requestDomain.ActionRequest
	res := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&out)
	return &out, res.Error
}

func (r *ActionRequestRepository) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*requestDomain.ActionRequest, error) {
	var out requestDomain.ActionRequest
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ?", requestID).
		First(&out)
	return &out, res.Error
}

func (r *ActionRequestRepository) GetActiveByContractID(ctx context.Context, contractID uint64) (*requestDomain.ActionRequest, error) {
	var out requestDomain.ActionRequest
	res := r.db.WithContext(ctx).
		Where("contract_id = ? AND request_status NOT IN ?", contractID,
			[]requestDomain.Status{requestDomain.StatusCompleted, requestDomain.StatusCanceled}).
		Order("id DESC").
		First(&out)
	return &out, res.Error
}

func (r *ActionRequestRepository) UpdateStatusIf(ctx context.Context, id uint64, from, to requestDomain.Status, stamps requestDomain.FieldUpdates) (bool, error) {
	updates := map[string]any{"request_status": to}
	for k, v := range stamps {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&requestDomain.ActionRequest{}).
		Where("id = ? AND request_status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ActionRequestRepository) ListStale(ctx context.Context, status requestDomain.Status, before time.Time) ([]requestDomain.ActionRequest, error) {
	var out []requestDomain.ActionRequest
	res := r.db.WithContext(ctx).
		Where("request_status = ? AND created_at < ?", status, before).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}
