// Package event routes inbound notification events through the dedup gate to
// the workflow usecases. The gate only saves wasted work: every handler behind
// it is idempotent on its own, so a duplicate that slips through still lands
// as a no-op.
package event

import (
	"context"
	"errors"
	"time"

	"gadai-backend/internal/dedup"
	requestUC "gadai-backend/internal/usecase/actionrequest"
	contractUC "gadai-backend/internal/usecase/contract"
	redemptionUC "gadai-backend/internal/usecase/redemption"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action names one externally delivered occurrence.
type Action string

const (
	ActionFundingReceived       Action = "funding_received"
	ActionFundingDisbursed      Action = "funding_disbursed"
	ActionPaymentConfirmed      Action = "payment_confirmed"
	ActionPaymentRejected       Action = "payment_rejected"
	ActionPawnDelivered         Action = "pawn_delivered"
	ActionItemDelivered         Action = "item_delivered"
	ActionItemVerified          Action = "item_verified"
	ActionRequestApproved       Action = "request_approved"
	ActionTransferSent          Action = "transfer_sent"
	ActionIncreaseReceived      Action = "increase_received"
	ActionRequestCanceled       Action = "request_canceled"
	ActionRedemptionConfirmed   Action = "redemption_confirmed"
	ActionRedemptionReceiptAckd Action = "redemption_receipt_acknowledged"
)

var (
	ErrUnknownAction = errors.New("unknown event action")
	ErrMissingField  = errors.New("event is missing a required field")
)

// Event is one inbound delivery. EventAt is the producer's timestamp and is
// part of the dedup identity: redeliveries carry the same EventAt, genuine
// repeats of the same action carry a new one.
type Event struct {
	ActorID      string    `json:"actor_id"`
	Action       Action    `json:"action"`
	ContractID   string    `json:"contract_id,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	RedemptionID string    `json:"redemption_id,omitempty"`
	EventAt      time.Time `json:"event_at"`
}

// Ack is what the producer gets back. Duplicate deliveries are acknowledged
// as accepted so the producer stops retrying, with zero writes performed.
type Ack struct {
	EventID   string `json:"event_id"`
	Accepted  bool   `json:"accepted"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Applied   bool   `json:"applied"`
	Reason    string `json:"reason,omitempty"`
}

// ContractWorkflow is the slice of the contract usecase the router needs.
type ContractWorkflow interface {
	MarkFunded(ctx context.Context, contractID string) (*contractUC.Result, error)
	MarkDisbursed(ctx context.Context, contractID string) (*contractUC.Result, error)
	ConfirmPayment(ctx context.Context, contractID string) (*contractUC.Result, error)
	RejectPayment(ctx context.Context, contractID string) (*contractUC.Result, error)
	ConfirmPawnDelivery(ctx context.Context, contractID string) (*contractUC.Result, error)
	MarkDelivered(ctx context.Context, contractID string) (*contractUC.Result, error)
	MarkVerified(ctx context.Context, contractID string) (*contractUC.Result, error)
}

// RequestWorkflow is the slice of the action-request usecase the router needs.
type RequestWorkflow interface {
	Approve(ctx context.Context, requestID string) (*requestUC.Result, error)
	RecordTransfer(ctx context.Context, requestID string) (*requestUC.Result, error)
	ConfirmReceived(ctx context.Context, requestID string) (*requestUC.ConfirmResult, error)
	Cancel(ctx context.Context, requestID string) (*requestUC.Result, error)
}

// RedemptionWorkflow is the slice of the redemption usecase the router needs.
type RedemptionWorkflow interface {
	ConfirmPawnerDelivery(ctx context.Context, redemptionID string) (*redemptionUC.Result, error)
	ConfirmInvestorReceipt(ctx context.Context, redemptionID string) (*redemptionUC.Result, error)
}

// outcome is the applied/reason pair every guarded workflow step reports.
type outcome struct {
	applied bool
	reason  string
}

type handlerFunc func(ctx context.Context, e Event) (outcome, error)

// Router validates, dedups, and dispatches events.
type Router struct {
	gate     dedup.Gate
	log      *zap.Logger
	handlers map[Action]handlerFunc
}

func NewRouter(gate dedup.Gate, contracts ContractWorkflow, requests RequestWorkflow, redemptions RedemptionWorkflow, log *zap.Logger) *Router {
	r := &Router{gate: gate, log: log}

	onContract := func(fn func(context.Context, string) (*contractUC.Result, error)) handlerFunc {
		return func(ctx context.Context, e Event) (outcome, error) {
			if e.ContractID == "" {
				return outcome{}, ErrMissingField
			}
			res, err := fn(ctx, e.ContractID)
			if err != nil {
				return outcome{}, err
			}
			return outcome{applied: res.Applied, reason: res.Reason}, nil
		}
	}
	onRequest := func(fn func(context.Context, string) (*requestUC.Result, error)) handlerFunc {
		return func(ctx context.Context, e Event) (outcome, error) {
			if e.RequestID == "" {
				return outcome{}, ErrMissingField
			}
			res, err := fn(ctx, e.RequestID)
			if err != nil {
				return outcome{}, err
			}
			return outcome{applied: res.Applied, reason: res.Reason}, nil
		}
	}
	onRedemption := func(fn func(context.Context, string) (*redemptionUC.Result, error)) handlerFunc {
		return func(ctx context.Context, e Event) (outcome, error) {
			if e.RedemptionID == "" {
				return outcome{}, ErrMissingField
			}
			res, err := fn(ctx, e.RedemptionID)
			if err != nil {
				return outcome{}, err
			}
			return outcome{applied: res.Applied, reason: res.Reason}, nil
		}
	}

	r.handlers = map[Action]handlerFunc{
		ActionFundingReceived:     onContract(contracts.MarkFunded),
		ActionFundingDisbursed:    onContract(contracts.MarkDisbursed),
		ActionPaymentConfirmed:    onContract(contracts.ConfirmPayment),
		ActionPaymentRejected:     onContract(contracts.RejectPayment),
		ActionPawnDelivered:       onContract(contracts.ConfirmPawnDelivery),
		ActionItemDelivered:       onContract(contracts.MarkDelivered),
		ActionItemVerified:        onContract(contracts.MarkVerified),
		ActionRequestApproved:     onRequest(requests.Approve),
		ActionTransferSent:        onRequest(requests.RecordTransfer),
		ActionRequestCanceled:     onRequest(requests.Cancel),
		ActionRedemptionConfirmed: onRedemption(redemptions.ConfirmPawnerDelivery),
		ActionIncreaseReceived: func(ctx context.Context, e Event) (outcome, error) {
			if e.RequestID == "" {
				return outcome{}, ErrMissingField
			}
			res, err := requests.ConfirmReceived(ctx, e.RequestID)
			if err != nil {
				return outcome{}, err
			}
			reason := res.Reason
			if res.Replayed {
				reason = "request already completed"
			}
			return outcome{applied: res.Applied, reason: reason}, nil
		},
		ActionRedemptionReceiptAckd: onRedemption(redemptions.ConfirmInvestorReceipt),
	}
	return r
}

// Submit routes one delivery. Validation failures are errors; duplicates and
// guard rejections are acknowledged outcomes.
func (r *Router) Submit(ctx context.Context, e Event) (*Ack, error) {
	if e.ActorID == "" || e.EventAt.IsZero() {
		return nil, ErrMissingField
	}
	handler, ok := r.handlers[e.Action]
	if !ok {
		return nil, ErrUnknownAction
	}

	ack := &Ack{EventID: uuid.NewString()}

	novel, err := r.gate.ShouldProcess(ctx, dedup.Key{
		ActorID: e.ActorID,
		Action:  string(e.Action),
		EventAt: e.EventAt,
	})
	if err != nil {
		// Fail open: the conditional transitions downstream absorb duplicates.
		r.log.Warn("dedup gate error, processing anyway", zap.Error(err))
		novel = true
	}
	if !novel {
		ack.Accepted = true
		ack.Duplicate = true
		r.log.Debug("duplicate event suppressed",
			zap.String("actor_id", e.ActorID), zap.String("action", string(e.Action)))
		return ack, nil
	}

	out, err := handler(ctx, e)
	if err != nil {
		return nil, err
	}
	ack.Accepted = true
	ack.Applied = out.applied
	ack.Reason = out.reason
	return ack, nil
}
