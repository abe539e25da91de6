package actionrequest

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type RequestType string

const (
	TypePrincipalIncrease RequestType = "principal_increase"
	TypePrincipalDecrease RequestType = "principal_decrease"
	TypePayInterest       RequestType = "pay_interest"
)

type Status string

const (
	StatusAwaitingInvestorPayment Status = "awaiting_investor_payment"
	StatusInvestorApproved        Status = "investor_approved"
	StatusInvestorTransferred     Status = "investor_transferred"
	StatusCompleted               Status = "completed"
	StatusCanceled                Status = "canceled"
)

var (
	ErrNotFound          = errors.New("action request not found")
	ErrActiveExists      = errors.New("contract already has an active action request")
	ErrInvalidTransition = errors.New("invalid action request transition")
	ErrAlreadyTerminal   = errors.New("action request already terminal")
	ErrAwaitingFunder    = errors.New("waiting on funder action")
	ErrUnknownType       = errors.New("unknown action request type")
)

// validTransitions is the workflow table. Cancellation is reachable from every
// non-terminal status.
var validTransitions = map[Status][]Status{
	StatusAwaitingInvestorPayment: {StatusInvestorApproved, StatusCanceled},
	StatusInvestorApproved:        {StatusInvestorTransferred, StatusCanceled},
	StatusInvestorTransferred:     {StatusCompleted, StatusCanceled},
	StatusCompleted:               {},
	StatusCanceled:                {},
}

// CanTransition reports whether from → to is in the workflow table.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool { return s == StatusCompleted || s == StatusCanceled }

// ActionRequest is a proposed contract modification awaiting multi-party
// consent. At most one non-terminal request may exist per contract.
type ActionRequest struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RequestID string `gorm:"column:request_id;type:char(32);not null;uniqueIndex:ux_action_requests_request_id" json:"request_id"`

	// FK to contracts.id (numeric).
	ContractID uint64      `gorm:"column:contract_id;not null;index" json:"-"`
	Type       RequestType `gorm:"column:request_type;type:enum('principal_increase','principal_decrease','pay_interest');not null" json:"request_type"`
	Status     Status      `gorm:"column:request_status;type:enum('awaiting_investor_payment','investor_approved','investor_transferred','completed','canceled');default:'awaiting_investor_payment'" json:"request_status"`

	// Amount is the requested delta (increase/decrease) or the interest payment.
	Amount         float64 `gorm:"column:amount;type:decimal(18,2)" json:"amount"`
	PrincipalAfter float64 `gorm:"column:principal_after;type:decimal(18,2)" json:"principal_after"`

	SigningArtifactRef string `gorm:"column:signing_artifact_ref;type:text" json:"signing_artifact_ref"`

	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	TransferredAt *time.Time `json:"transferred_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CanceledAt    *time.Time `json:"canceled_at,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ActionRequest) TableName() string { return "action_requests" }
