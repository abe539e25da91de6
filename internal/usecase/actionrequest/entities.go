package actionrequest

import (
	"time"
)

type CreateRequestInput struct {
	ContractID         string  `json:"contract_id"`
	Type               string  `json:"request_type"`
	Amount             float64 `json:"amount"`
	SigningArtifactRef string  `json:"signing_artifact_ref"`
}

type RequestDTO struct {
	RequestID          string     `json:"request_id"`
	ContractID         string     `json:"contract_id"`
	Type               string     `json:"request_type"`
	Status             string     `json:"request_status"`
	Amount             float64    `json:"amount"`
	PrincipalAfter     float64    `json:"principal_after"`
	SigningArtifactRef string     `json:"signing_artifact_ref"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	TransferredAt      *time.Time `json:"transferred_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Result wraps a guarded workflow transition; Applied=false carries the reason
// and the current state.
type Result struct {
	Applied bool        `json:"applied"`
	Reason  string      `json:"reason,omitempty"`
	Request *RequestDTO `json:"request"`
}

// ConfirmResult is what the pawner's final confirmation returns. Replayed is
// set when the request had already completed and the cached outcome was
// returned instead of a new mutation.
type ConfirmResult struct {
	Applied       bool        `json:"applied"`
	Replayed      bool        `json:"replayed,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Request       *RequestDTO `json:"request"`
	NewContractID string      `json:"new_contract_id,omitempty"`
}

// Projection is the read-only preview of what an action would cost, straight
// from the calculation engine.
type Projection struct {
	ContractID            string  `json:"contract_id"`
	ActionType            string  `json:"action_type"`
	ElapsedDays           int     `json:"elapsed_days"`
	RemainingDays         int     `json:"remaining_days"`
	InterestToDate        float64 `json:"interest_to_date"`
	FeeToDate             float64 `json:"fee_to_date"`
	NewPrincipal          float64 `json:"new_principal"`
	InterestRemaining     float64 `json:"interest_remaining"`
	FeeRemaining          float64 `json:"fee_remaining"`
	OriginalTotalInterest float64 `json:"original_total_interest,omitempty"`
	TotalAfterAction      float64 `json:"total_after_action,omitempty"`
}
