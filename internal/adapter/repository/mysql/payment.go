package mysql

import (
	"context"
	"time"

	paymentDomain "gadai-backend/internal/domain/payment"

	"gorm.io/gorm"
)

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) Create(ctx context.Context, p *paymentDomain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*paymentDomain.Payment, error) {
	var out paymentDomain.Payment
	res := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&out)
	return &out, res.Error
}

func (r *PaymentRepository) ListByContractID(ctx context.Context, contractID uint64) ([]paymentDomain.Payment, error) {
	var out []paymentDomain.Payment
	res := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *PaymentRepository) CompleteIf(ctx context.Context, id uint64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&paymentDomain.Payment{}).
		Where("id = ? AND status NOT IN ?", id,
			[]paymentDomain.Status{paymentDomain.StatusCompleted, paymentDomain.StatusRefunded}).
		Updates(map[string]any{"status": paymentDomain.StatusCompleted, "completed_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PaymentRepository) MarkStatusIf(ctx context.Context, id uint64, from, to paymentDomain.Status) (bool, error) {
	// Completed rows never move backward, whatever the caller asks for.
	if from == paymentDomain.StatusCompleted {
		return false, paymentDomain.ErrBackwardMove
	}
	res := r.db.WithContext(ctx).
		Model(&paymentDomain.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
