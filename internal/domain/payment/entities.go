package payment

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

type Kind string

const (
	KindFunding          Kind = "funding"
	KindIncreaseTransfer Kind = "increase_transfer"
	KindInterestPayment  Kind = "interest_payment"
	KindRedemption       Kind = "redemption"
)

var (
	ErrNotFound = errors.New("payment not found")
	// ErrBackwardMove guards the one hard rule of this table: a completed
	// payment never transitions backward.
	ErrBackwardMove = errors.New("payment already completed")
)

// Payment records one money movement tied to a contract or action request. It
// is an audit record, never a completion signal: contract/request statuses
// are the single source of truth for "done".
type Payment struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PaymentID string `gorm:"column:payment_id;type:char(32);not null;uniqueIndex:ux_payments_payment_id" json:"payment_id"`

	ContractID      uint64  `gorm:"column:contract_id;not null;index" json:"-"`
	ActionRequestID *uint64 `gorm:"column:action_request_id;index" json:"-"`

	Kind   Kind    `gorm:"column:kind;type:enum('funding','increase_transfer','interest_payment','redemption');not null" json:"kind"`
	Amount float64 `gorm:"column:amount;type:decimal(18,2)" json:"amount"`
	Status Status  `gorm:"column:status;type:enum('pending','processing','completed','failed','refunded');default:'pending'" json:"status"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Payment) TableName() string { return "payments" }
