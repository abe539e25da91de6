// Package notifier is the outbound edge toward the excluded messaging layer.
// Every call is fire-and-forget: state is committed before a notification is
// attempted, and a dispatch failure is logged, never propagated.
package notifier

import (
	"context"

	"go.uber.org/zap"
)

type TemplateKind string

const (
	KindFundingReceived     TemplateKind = "funding_received"
	KindFundingDisbursed    TemplateKind = "funding_disbursed"
	KindPaymentConfirmed    TemplateKind = "payment_confirmed"
	KindPaymentRejected     TemplateKind = "payment_rejected"
	KindResubmitPayment     TemplateKind = "resubmit_payment"
	KindRejectionRefused    TemplateKind = "rejection_window_closed"
	KindPawnReminder        TemplateKind = "pawn_already_confirmed_reminder"
	KindItemDelivered       TemplateKind = "item_delivered"
	KindItemVerified        TemplateKind = "item_verified"
	KindRequestCreated      TemplateKind = "action_request_created"
	KindRequestApproved     TemplateKind = "action_request_approved"
	KindTransferRecorded    TemplateKind = "transfer_recorded"
	KindRenewalCreated      TemplateKind = "renewal_created"
	KindRequestCanceled     TemplateKind = "action_request_canceled"
	KindRedemptionInitiated TemplateKind = "redemption_initiated"
	KindItemReturned        TemplateKind = "item_returned"
)

type Notifier interface {
	Notify(ctx context.Context, partyRef string, kind TemplateKind, fields map[string]any) error
}

// LogNotifier writes the notification to the structured log instead of a
// delivery channel. It is also the stand-in while the real dispatcher is an
// external collaborator.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) Notify(_ context.Context, partyRef string, kind TemplateKind, fields map[string]any) error {
	n.log.Info("notify",
		zap.String("party", partyRef),
		zap.String("template", string(kind)),
		zap.Any("fields", fields),
	)
	return nil
}

// BestEffort dispatches and swallows the error, logging it as a warning. Used
// by usecases after their transaction has committed.
func BestEffort(ctx context.Context, n Notifier, log *zap.Logger, partyRef string, kind TemplateKind, fields map[string]any) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, partyRef, kind, fields); err != nil {
		log.Warn("notification dispatch failed",
			zap.String("party", partyRef),
			zap.String("template", string(kind)),
			zap.Error(err),
		)
	}
}
