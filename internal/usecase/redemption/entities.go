package redemption

import "time"

type RedemptionDTO struct {
	RedemptionID      string     `json:"redemption_id"`
	ContractID        string     `json:"contract_id"`
	Status            string     `json:"request_status"`
	InterestAmount    float64    `json:"interest_amount"`
	PlatformFeeAmount float64    `json:"platform_fee_amount"`
	InvestorNetProfit float64    `json:"investor_net_profit"`
	PawnerConfirmedAt *time.Time `json:"pawner_confirmed_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Result wraps a guarded redemption step; Applied=false carries the reason and
// the current state.
type Result struct {
	Applied    bool           `json:"applied"`
	Reason     string         `json:"reason,omitempty"`
	Redemption *RedemptionDTO `json:"redemption"`
}
