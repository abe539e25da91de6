package contract

import (
	"time"
)

type CreateContractInput struct {
	PawnerID    string  `json:"pawner_id"`
	InvestorID  string  `json:"investor_id"`
	DropPointID string  `json:"drop_point_id"`
	Principal   float64 `json:"principal"`
	// MonthlyRate accepts a fraction (0.03) or a whole-number percentage (3).
	MonthlyRate  float64 `json:"monthly_rate"`
	DurationDays int     `json:"duration_days"`
}

type ContractDTO struct {
	ContractID              string     `json:"contract_id"`
	PawnerID                string     `json:"pawner_id"`
	InvestorID              string     `json:"investor_id"`
	DropPointID             string     `json:"drop_point_id"`
	PrincipalAmount         float64    `json:"principal_amount"`
	OriginalPrincipalAmount float64    `json:"original_principal_amount"`
	MonthlyRate             float64    `json:"monthly_rate"`
	DurationDays            int        `json:"duration_days"`
	StartDate               time.Time  `json:"start_date"`
	EndDate                 time.Time  `json:"end_date"`
	InterestAmount          float64    `json:"interest_amount"`
	PlatformFeeAmount       float64    `json:"platform_fee_amount"`
	TotalAmount             float64    `json:"total_amount"`
	FundingStatus           string     `json:"funding_status"`
	PaymentStatus           string     `json:"payment_status"`
	ContractStatus          string     `json:"contract_status"`
	DeliveryStatus          string     `json:"item_delivery_status"`
	RedemptionStatus        string     `json:"redemption_status"`
	ParentContractID        *string    `json:"parent_contract_id,omitempty"`
	OriginalContractID      string     `json:"original_contract_id"`
	ExtensionCount          int        `json:"extension_count"`
	PaymentConfirmedAt      *time.Time `json:"payment_confirmed_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
}

// Result is the outcome of a guarded transition. Guard rejections are expected
// traffic (duplicate deliveries, impatient re-clicks): Applied=false with a
// Reason and the current stable state, never an error.
type Result struct {
	Applied  bool         `json:"applied"`
	Reason   string       `json:"reason,omitempty"`
	Contract *ContractDTO `json:"contract"`
}
