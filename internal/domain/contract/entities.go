package contract

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type FundingStatus string

const (
	FundingPending   FundingStatus = "pending"
	FundingFunded    FundingStatus = "funded"
	FundingDisbursed FundingStatus = "disbursed"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRejected   PaymentStatus = "rejected"
	PaymentRefunded   PaymentStatus = "refunded"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
)

type DeliveryStatus string

const (
	DeliveryNone            DeliveryStatus = "none"
	DeliveryPawnerConfirmed DeliveryStatus = "pawner_confirmed"
	DeliveryDelivered       DeliveryStatus = "delivered"
	DeliveryVerified        DeliveryStatus = "verified"
	DeliveryReturned        DeliveryStatus = "returned"
)

type RedemptionStatus string

const (
	RedemptionNone       RedemptionStatus = "none"
	RedemptionInProgress RedemptionStatus = "in_progress"
	RedemptionCompleted  RedemptionStatus = "completed"
)

var (
	ErrNotFound             = errors.New("contract not found")
	ErrInvalidTransition    = errors.New("invalid contract transition")
	ErrIllegalStatusCombo   = errors.New("illegal contract status combination")
	ErrAlreadyConfirmed     = errors.New("payment already confirmed")
	ErrFundingWindowClosed  = errors.New("rejection window closed: funding already advanced")
	ErrContractClosed       = errors.New("contract is closed")
	ErrActiveSuccessor      = errors.New("contract already has an active successor")
	ErrPrincipalBelowZero   = errors.New("principal would fall below zero")
	ErrRedemptionInProgress = errors.New("redemption already in progress")
)

// Contract is the authoritative record of one loan. Four orthogonal status
// columns track funding, money-in, lifecycle and item custody; legal
// cross-products are enforced by the guard methods below before any write.
type Contract struct {
	ID         uint64 `gorm:"primaryKey;column:id" json:"-"`
	ContractID string `gorm:"size:32;uniqueIndex:ux_contracts_contract_id_active" json:"contract_id"`

	PawnerID    string `gorm:"size:32;index:idx_contracts_pawner" json:"pawner_id"`
	InvestorID  string `gorm:"size:32;index:idx_contracts_investor" json:"investor_id"`
	DropPointID string `gorm:"size:32" json:"drop_point_id"`

	PrincipalAmount         float64 `gorm:"type:decimal(18,2)" json:"principal_amount"`
	OriginalPrincipalAmount float64 `gorm:"type:decimal(18,2)" json:"original_principal_amount"`
	TotalIncreaseAmount     float64 `gorm:"type:decimal(18,2)" json:"total_increase_amount"`
	TotalDecreaseAmount     float64 `gorm:"type:decimal(18,2)" json:"total_decrease_amount"`

	// MonthlyRate is the total monthly rate (lender + platform fee components),
	// stored as a fraction.
	MonthlyRate  float64   `gorm:"type:decimal(6,4)" json:"monthly_rate"`
	DurationDays int       `gorm:"column:duration_days" json:"duration_days"`
	StartDate    time.Time `gorm:"column:start_date" json:"start_date"`
	EndDate      time.Time `gorm:"column:end_date" json:"end_date"`

	InterestAmount    float64 `gorm:"type:decimal(18,2)" json:"interest_amount"`
	PlatformFeeAmount float64 `gorm:"type:decimal(18,2)" json:"platform_fee_amount"`
	TotalAmount       float64 `gorm:"type:decimal(18,2)" json:"total_amount"`

	FundingStatus  FundingStatus    `gorm:"type:enum('pending','funded','disbursed');default:'pending'" json:"funding_status"`
	PaymentStatus  PaymentStatus    `gorm:"type:enum('pending','processing','completed','failed','rejected','refunded');default:'pending'" json:"payment_status"`
	ContractStatus Status           `gorm:"type:enum('draft','confirmed','completed');default:'draft'" json:"contract_status"`
	DeliveryStatus DeliveryStatus   `gorm:"type:enum('none','pawner_confirmed','delivered','verified','returned');default:'none'" json:"item_delivery_status"`
	Redemption     RedemptionStatus `gorm:"column:redemption_status;type:enum('none','in_progress','completed');default:'none'" json:"redemption_status"`

	// Lineage. ParentContractID points at the contract this one superseded;
	// OriginalContractID is the root of the chain and never changes across
	// renewals.
	ParentContractID   *string `gorm:"size:32;index:idx_contracts_parent" json:"parent_contract_id,omitempty"`
	OriginalContractID string  `gorm:"size:32;index:idx_contracts_original" json:"original_contract_id"`
	ExtensionCount     int     `gorm:"default:0" json:"extension_count"`

	AmountPaid    float64 `gorm:"type:decimal(18,2)" json:"amount_paid"`
	InterestPaid  float64 `gorm:"type:decimal(18,2)" json:"interest_paid"`
	PrincipalPaid float64 `gorm:"type:decimal(18,2)" json:"principal_paid"`

	FundedAt           *time.Time `json:"funded_at,omitempty"`
	DisbursedAt        *time.Time `json:"disbursed_at,omitempty"`
	PaymentConfirmedAt *time.Time `json:"payment_confirmed_at,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	ReturnedAt         *time.Time `json:"returned_at,omitempty"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Contract) TableName() string { return "contracts" }

// fundingRank orders the monotonic funding chain.
var fundingRank = map[FundingStatus]int{
	FundingPending:   0,
	FundingFunded:    1,
	FundingDisbursed: 2,
}

// deliveryRank orders the item custody chain.
var deliveryRank = map[DeliveryStatus]int{
	DeliveryNone:            0,
	DeliveryPawnerConfirmed: 1,
	DeliveryDelivered:       2,
	DeliveryVerified:        3,
	DeliveryReturned:        4,
}

// CanAdvanceFunding reports whether moving funding to target is exactly one
// forward step. Backward or same-rank moves are no-ops for the caller.
func (c *Contract) CanAdvanceFunding(to FundingStatus) bool {
	cur, ok1 := fundingRank[c.FundingStatus]
	next, ok2 := fundingRank[to]
	return ok1 && ok2 && next == cur+1
}

// CanAdvanceDelivery reports whether moving custody to target is exactly one
// forward step.
func (c *Contract) CanAdvanceDelivery(to DeliveryStatus) bool {
	cur, ok1 := deliveryRank[c.DeliveryStatus]
	next, ok2 := deliveryRank[to]
	return ok1 && ok2 && next == cur+1
}

// CanConfirmPayment guards the confirm-payment transition: refuse once the
// payment is completed or the contract has moved past draft.
func (c *Contract) CanConfirmPayment() error {
	if c.PaymentStatus == PaymentCompleted || c.ContractStatus == StatusConfirmed {
		return ErrAlreadyConfirmed
	}
	if c.ContractStatus == StatusCompleted {
		return ErrContractClosed
	}
	return nil
}

// CanRejectPayment guards payment rejection: only while funding is still
// pending and no completion markers are set. Once money has moved on, the
// handoff is irreversible.
func (c *Contract) CanRejectPayment() error {
	if c.FundingStatus != FundingPending {
		return ErrFundingWindowClosed
	}
	if c.PaymentStatus == PaymentCompleted || c.ContractStatus != StatusDraft {
		return ErrFundingWindowClosed
	}
	return nil
}

// IsClosed reports whether the contract reached a terminal lifecycle state.
func (c *Contract) IsClosed() bool { return c.ContractStatus == StatusCompleted }

// IsActive reports whether the contract is running and can be modified.
func (c *Contract) IsActive() bool { return c.ContractStatus == StatusConfirmed }

// ValidateStatusCombination rejects cross-products the four columns must never
// reach together, independent of which transition tried to produce them.
func (c *Contract) ValidateStatusCombination() error {
	if c.ContractStatus == StatusConfirmed && c.PaymentStatus != PaymentCompleted {
		return ErrIllegalStatusCombo
	}
	if c.FundingStatus == FundingDisbursed && c.PaymentStatus == PaymentRejected {
		return ErrIllegalStatusCombo
	}
	if c.Redemption != RedemptionNone && c.ContractStatus == StatusDraft {
		return ErrIllegalStatusCombo
	}
	if c.PrincipalAmount < 0 {
		return ErrPrincipalBelowZero
	}
	return nil
}
