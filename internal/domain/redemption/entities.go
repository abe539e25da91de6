package redemption

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusPending         Status = "pending"
	StatusPawnerConfirmed Status = "pawner_confirmed"
	StatusCompleted       Status = "completed"
)

var (
	ErrNotFound          = errors.New("redemption request not found")
	ErrInvalidTransition = errors.New("invalid redemption transition")
)

// RedemptionRequest tracks a full payoff: pawner settles, item goes back,
// funder confirms receipt of the settlement.
type RedemptionRequest struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RedemptionID string `gorm:"column:redemption_id;type:char(32);not null;uniqueIndex:ux_redemptions_redemption_id" json:"redemption_id"`

	// FK to contracts.id (numeric).
	ContractID uint64 `gorm:"column:contract_id;not null;index" json:"-"`

	InterestAmount    float64 `gorm:"column:interest_amount;type:decimal(18,2)" json:"interest_amount"`
	PlatformFeeAmount float64 `gorm:"column:platform_fee_amount;type:decimal(18,2)" json:"platform_fee_amount"`
	InvestorNetProfit float64 `gorm:"column:investor_net_profit;type:decimal(18,2)" json:"investor_net_profit"`

	Status Status `gorm:"column:request_status;type:enum('pending','pawner_confirmed','completed');default:'pending'" json:"request_status"`

	PawnerConfirmedAt *time.Time `json:"pawner_confirmed_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (RedemptionRequest) TableName() string { return "redemption_requests" }
