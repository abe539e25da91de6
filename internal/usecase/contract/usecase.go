package contract

import (
	"context"
	"errors"
	"time"

	domain "gadai-backend/internal/domain/contract"
	paymentDomain "gadai-backend/internal/domain/payment"
	"gadai-backend/internal/domain/uow"
	"gadai-backend/internal/notifier"
	"gadai-backend/pkg/fincalc"
	"gadai-backend/pkg/id"

	"go.uber.org/zap"
)

var ErrInvalidInput = errors.New("invalid input")

type Usecase struct {
	uow      uow.UnitOfWork
	notifier notifier.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, n notifier.Notifier, log *zap.Logger) *Usecase {
	return &Usecase{
		uow:      tx,
		notifier: n,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func toDTO(c *domain.Contract) *ContractDTO {
	return &ContractDTO{
		ContractID:              c.ContractID,
		PawnerID:                c.PawnerID,
		InvestorID:              c.InvestorID,
		DropPointID:             c.DropPointID,
		PrincipalAmount:         c.PrincipalAmount,
		OriginalPrincipalAmount: c.OriginalPrincipalAmount,
		MonthlyRate:             c.MonthlyRate,
		DurationDays:            c.DurationDays,
		StartDate:               c.StartDate,
		EndDate:                 c.EndDate,
		InterestAmount:          c.InterestAmount,
		PlatformFeeAmount:       c.PlatformFeeAmount,
		TotalAmount:             c.TotalAmount,
		FundingStatus:           string(c.FundingStatus),
		PaymentStatus:           string(c.PaymentStatus),
		ContractStatus:          string(c.ContractStatus),
		DeliveryStatus:          string(c.DeliveryStatus),
		RedemptionStatus:        string(c.Redemption),
		ParentContractID:        c.ParentContractID,
		OriginalContractID:      c.OriginalContractID,
		ExtensionCount:          c.ExtensionCount,
		PaymentConfirmedAt:      c.PaymentConfirmedAt,
		CreatedAt:               c.CreatedAt,
	}
}

// Create opens a contract when funding is requested. The row starts in
// pending/draft/none and owns its own lineage root.
func (u *Usecase) Create(ctx context.Context, in CreateContractInput) (*ContractDTO, error) {
	if len(in.PawnerID) != 32 || len(in.InvestorID) != 32 || len(in.DropPointID) != 32 || in.Principal <= 0 {
		return nil, ErrInvalidInput
	}
	rate, err := fincalc.NormalizeRate(in.MonthlyRate)
	if err != nil {
		return nil, err
	}
	terms, err := fincalc.ContractTerms(in.Principal, rate, in.DurationDays)
	if err != nil {
		return nil, err
	}

	now := u.now()
	c := &domain.Contract{
		ContractID:              id.NewID32(),
		PawnerID:                in.PawnerID,
		InvestorID:              in.InvestorID,
		DropPointID:             in.DropPointID,
		PrincipalAmount:         in.Principal,
		OriginalPrincipalAmount: in.Principal,
		MonthlyRate:             rate,
		DurationDays:            in.DurationDays,
		StartDate:               now,
		EndDate:                 now.AddDate(0, 0, in.DurationDays),
		InterestAmount:          terms.InterestAmount,
		PlatformFeeAmount:       terms.PlatformFeeAmount,
		TotalAmount:             terms.TotalAmount,
		FundingStatus:           domain.FundingPending,
		PaymentStatus:           domain.PaymentPending,
		ContractStatus:          domain.StatusDraft,
		DeliveryStatus:          domain.DeliveryNone,
		Redemption:              domain.RedemptionNone,
	}
	c.OriginalContractID = c.ContractID

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Contracts.Create(ctx, c); err != nil {
			return err
		}
		return r.Payments.Create(ctx, &paymentDomain.Payment{
			PaymentID:  id.NewID32(),
			ContractID: c.ID,
			Kind:       paymentDomain.KindFunding,
			Amount:     in.Principal,
			Status:     paymentDomain.StatusPending,
		})
	})
	if err != nil {
		return nil, err
	}
	return toDTO(c), nil
}

func (u *Usecase) Get(ctx context.Context, contractID string) (*ContractDTO, error) {
	var dto *ContractDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.Contracts.GetByContractID(ctx, contractID)
		if err != nil {
			return err
		}
		dto = toDTO(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Lineage returns every generation of the contract, oldest first.
func (u *Usecase) Lineage(ctx context.Context, contractID string) ([]ContractDTO, error) {
	var out []ContractDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.Contracts.GetByContractID(ctx, contractID)
		if err != nil {
			return err
		}
		root := c.OriginalContractID
		if root == "" {
			root = c.ContractID
		}
		chain, err := r.Contracts.ListLineage(ctx, root)
		if err != nil {
			return err
		}
		out = make([]ContractDTO, 0, len(chain))
		for i := range chain {
			out = append(out, *toDTO(&chain[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// advanceFunding moves the monotonic funding chain one step. Backward or
// same-state events are no-ops returning the current state.
func (u *Usecase) advanceFunding(ctx context.Context, contractID string, to domain.FundingStatus, stampCol string, kind notifier.TemplateKind) (*Result, error) {
	var res *Result
	var party string
	err := u.uow.WithinContractTx(ctx, contractID, func(r uow.Repos, c *domain.Contract) error {
		party = c.PawnerID
		if !c.CanAdvanceFunding(to) {
			res = &Result{Applied: false, Reason: "funding already at or past " + string(to), Contract: toDTO(c)}
			return nil
		}
		now := u.now()
		applied, err := r.Contracts.UpdateFundingStatusIf(ctx, c.ID, c.FundingStatus, to,
			domain.FieldUpdates{stampCol: now})
		if err != nil {
			return err
		}
		if !applied {
			// Lost the race to a concurrent delivery.
			res = &Result{Applied: false, Reason: "funding already at or past " + string(to), Contract: toDTO(c)}
			return nil
		}
		c.FundingStatus = to
		res = &Result{Applied: true, Contract: toDTO(c)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		notifier.BestEffort(ctx, u.notifier, u.log, party, kind, map[string]any{"contract_id": contractID})
	}
	return res, nil
}

func (u *Usecase) MarkFunded(ctx context.Context, contractID string) (*Result, error) {
	return u.advanceFunding(ctx, contractID, domain.FundingFunded, "funded_at", notifier.KindFundingReceived)
}

func (u *Usecase) MarkDisbursed(ctx context.Context, contractID string) (*Result, error) {
	return u.advanceFunding(ctx, contractID, domain.FundingDisbursed, "disbursed_at", notifier.KindFundingDisbursed)
}

// ConfirmPawnDelivery applies the pawner's "item handed over" confirmation.
// Idempotent by construction: once past none, the handler only sends an
// informational reminder and performs no mutation.
func (u *Usecase) ConfirmPawnDelivery(ctx context.Context, contractID string) (*Result, error) {
	var res *Result
	var party string
	err := u.uow.WithinContractTx(ctx, contractID, func(r uow.Repos, c *domain.Contract) error {
		party = c.PawnerID
		if c.DeliveryStatus != domain.DeliveryNone {
			res = &Result{Applied: false, Reason: "pawn already confirmed", Contract: toDTO(c)}
			return nil
		}
		applied, err := r.Contracts.UpdateDeliveryStatusIf(ctx, c.ID,
			domain.DeliveryNone, domain.DeliveryPawnerConfirmed, nil)
		if err != nil {
			return err
		}
		if !applied {
			res = &Result{Applied: false, Reason: "pawn already confirmed", Contract: toDTO(c)}
			return nil
		}
		c.DeliveryStatus = domain.DeliveryPawnerConfirmed
		res = &Result{Applied: true, Contract: toDTO(c)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Applied {
		notifier.BestEffort(ctx, u.notifier, u.log, party, notifier.KindPawnReminder, map[string]any{"contract_id": contractID})
	}
	return res, nil
}

// advanceDelivery moves the custody chain one step.
func (u *Usecase) advanceDelivery(ctx context.Context, contractID string, to domain.DeliveryStatus, stampCol string, kind notifier.TemplateKind) (*Result, error) {
	var res *Result
	var party string
	err := u.uow.WithinContractTx(ctx, contractID, func(r uow.Repos, c *domain.Contract) error {
		party = c.InvestorID
		if !c.CanAdvanceDelivery(to) {
			res = &Result{Applied: false, Reason: "delivery not ready for " + string(to), Contract: toDTO(c)}
			return nil
		}
		applied, err := r.Contracts.UpdateDeliveryStatusIf(ctx, c.ID, c.DeliveryStatus, to,
			domain.FieldUpdates{stampCol: u.now()})
		if err != nil {
			return err
		}
		if !applied {
			res = &Result{Applied: false, Reason: "delivery not ready for " + string(to), Contract: toDTO(c)}
			return nil
		}
		c.DeliveryStatus = to
		res = &Result{Applied: true, Contract: toDTO(c)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		notifier.BestEffort(ctx, u.notifier, u.log, party, kind, map[string]any{"contract_id": contractID})
	}
	return res, nil
}

func (u *Usecase) MarkDelivered(ctx context.Context, contractID string) (*Result, error) {
	return u.advanceDelivery(ctx, contractID, domain.DeliveryDelivered, "delivered_at", notifier.KindItemDelivered)
}

func (u *Usecase) MarkVerified(ctx context.Context, contractID string) (*Result, error) {
	return u.advanceDelivery(ctx, contractID, domain.DeliveryVerified, "verified_at", notifier.KindItemVerified)
}

// ConfirmPayment marks the investor's funding payment as received and confirms
// the contract. Duplicate deliveries get the already-confirmed state back with
// zero additional writes.
func (u *Usecase) ConfirmPayment(ctx context.Context, contractID string) (*Result, error) {
	var res *Result
	var pawner string
	err := u.uow.WithinContractTx(ctx, contractID, func(r uow.Repos, c *domain.Contract) error {
		pawner = c.PawnerID
		if err := c.CanConfirmPayment(); err != nil {
			res = &Result{Applied: false, Reason: err.Error(), Contract: toDTO(c)}
			return nil
		}
		now := u.now()
		applied, err := r.Contracts.ConfirmPaymentIf(ctx, c.ID, now)
		if err != nil {
			return err
		}
		if !applied {
			res = &Result{Applied: false, Reason: domain.ErrAlreadyConfirmed.Error(), Contract: toDTO(c)}
			return nil
		}
		if err := u.completeFundingPayment(ctx, r, c.ID, now); err != nil {
			return err
		}
		c.PaymentStatus = domain.PaymentCompleted
		c.ContractStatus = domain.StatusConfirmed
		c.PaymentConfirmedAt = &now
		res = &Result{Applied: true, Contract: toDTO(c)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		notifier.BestEffort(ctx, u.notifier, u.log, pawner, notifier.KindPaymentConfirmed, map[string]any{"contract_id": contractID})
	}
	return res, nil
}

func (u *Usecase) completeFundingPayment(ctx context.Context, r uow.Repos, contractID uint64, at time.Time) error {
	payments, err := r.Payments.ListByContractID(ctx, contractID)
	if err != nil {
		return err
	}
	for i := range payments {
		if payments[i].Kind == paymentDomain.KindFunding && payments[i].Status != paymentDomain.StatusCompleted {
			if _, err := r.Payments.CompleteIf(ctx, payments[i].ID, at); err != nil {
				return err
			}
		}
	}
	return nil
}

// RejectPayment is only valid while funding is still pending; past that point
// the handoff is irreversible and the caller is told the window has closed.
func (u *Usecase) RejectPayment(ctx context.Context, contractID string) (*Result, error) {
	var res *Result
	var pawner, investor string
	err := u.uow.WithinContractTx(ctx, contractID, func(r uow.Repos, c *domain.Contract) error {
		pawner, investor = c.PawnerID, c.InvestorID
		if err := c.CanRejectPayment(); err != nil {
			res = &Result{Applied: false, Reason: err.Error(), Contract: toDTO(c)}
			return nil
		}
		applied, err := r.Contracts.RejectPaymentIf(ctx, c.ID)
		if err != nil {
			return err
		}
		if !applied {
			res = &Result{Applied: false, Reason: domain.ErrFundingWindowClosed.Error(), Contract: toDTO(c)}
			return nil
		}
		payments, err := r.Payments.ListByContractID(ctx, c.ID)
		if err != nil {
			return err
		}
		for i := range payments {
			if payments[i].Kind == paymentDomain.KindFunding && payments[i].Status == paymentDomain.StatusPending {
				if _, err := r.Payments.MarkStatusIf(ctx, payments[i].ID, paymentDomain.StatusPending, paymentDomain.StatusFailed); err != nil {
					return err
				}
			}
		}
		c.PaymentStatus = domain.PaymentRejected
		res = &Result{Applied: true, Contract: toDTO(c)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		// Only a successful rejection asks the funder to re-submit.
		notifier.BestEffort(ctx, u.notifier, u.log, investor, notifier.KindResubmitPayment, map[string]any{"contract_id": contractID})
	} else {
		notifier.BestEffort(ctx, u.notifier, u.log, pawner, notifier.KindRejectionRefused, map[string]any{"contract_id": contractID})
	}
	return res, nil
}
