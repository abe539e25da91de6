package actionrequest

import (
	"context"
	"errors"
	"time"

	domain "gadai-backend/internal/domain/actionrequest"
	contractDomain "gadai-backend/internal/domain/contract"
	paymentDomain "gadai-backend/internal/domain/payment"
	"gadai-backend/internal/domain/uow"
	"gadai-backend/internal/notifier"
	"gadai-backend/pkg/fincalc"
	"gadai-backend/pkg/id"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidInput = errors.New("invalid input")

// StaleTimeout is the soft timeout on the awaiting-confirmation phase; a sweep
// cancels requests the funder never picked up. Liveness only: a missed sweep
// leaves the request pending, never corrupts it.
const StaleTimeout = 5 * time.Minute

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

func toDTO(a *domain.ActionRequest, contractPublicID string) *RequestDTO {
	return &RequestDTO{
		RequestID:          a.RequestID,
		ContractID:         contractPublicID,
		Type:               string(a.Type),
		Status:             string(a.Status),
		Amount:             a.Amount,
		PrincipalAfter:     a.PrincipalAfter,
		SigningArtifactRef: a.SigningArtifactRef,
		ApprovedAt:         a.ApprovedAt,
		TransferredAt:      a.TransferredAt,
		CompletedAt:        a.CompletedAt,
		CanceledAt:         a.CanceledAt,
		CreatedAt:          a.CreatedAt,
	}
}

func parseType(s string) (domain.RequestType, error) {
	switch domain.RequestType(s) {
	case domain.TypePrincipalIncrease, domain.TypePrincipalDecrease, domain.TypePayInterest:
		return domain.RequestType(s), nil
	}
	return "", domain.ErrUnknownType
}

// elapsedDays counts whole days from start to now.
func elapsedDays(start, now time.Time) int {
	return int(now.Sub(start).Hours() / 24)
}

// Create opens a request on an active contract. Exactly one non-terminal
// request may exist per contract.
func (u *Usecase) Create(ctx context.Context, in CreateRequestInput) (*RequestDTO, error) {
	reqType, err := parseType(in.Type)
	if err != nil {
		return nil, err
	}
	if in.ContractID == "" || in.Amount <= 0 {
		return nil, ErrInvalidInput
	}

	var dto *RequestDTO
	var investor string
	err = u.uow.WithinContractTx(ctx, in.ContractID, func(r uow.Repos, c *contractDomain.Contract) error {
		investor = c.InvestorID
		if !c.IsActive() {
			return contractDomain.ErrInvalidTransition
		}
		if c.Redemption != contractDomain.RedemptionNone {
			return contractDomain.ErrRedemptionInProgress
		}

		if _, err := r.ActionRequests.GetActiveByContractID(ctx, c.ID); err == nil {
			return domain.ErrActiveExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		a := &domain.ActionRequest{
			RequestID:          id.NewID32(),
			ContractID:         c.ID,
			Type:               reqType,
			Status:             domain.StatusAwaitingInvestorPayment,
			Amount:             in.Amount,
			SigningArtifactRef: in.SigningArtifactRef,
		}
		switch reqType {
		case domain.TypePrincipalIncrease:
			a.PrincipalAfter = fincalc.Round2(c.PrincipalAmount + in.Amount)
		case domain.TypePrincipalDecrease:
			if in.Amount > c.PrincipalAmount {
				return contractDomain.ErrPrincipalBelowZero
			}
			a.PrincipalAfter = fincalc.Round2(c.PrincipalAmount - in.Amount)
		case domain.TypePayInterest:
			a.PrincipalAfter = c.PrincipalAmount
		}
		if err := r.ActionRequests.Create(ctx, a); err != nil {
			return err
		}
		dto = toDTO(a, c.ContractID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	notifier.BestEffort(ctx, u.notifier, u.log, investor, notifier.KindRequestCreated,
		map[string]any{"contract_id": in.ContractID, "request_id": dto.RequestID, "request_type": in.Type})
	return dto, nil
}

// transition advances the workflow one step; a request already at or past the
// target comes back as a non-applied result, not an error.
func (u *Usecase) transition(ctx context.Context, requestID string, to domain.Status, stampCol string) (*Result, error) {
	var res *Result
	var pawner string
	var contractPublicID string
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.ActionRequests.GetByRequestIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		c, err := r.Contracts.GetByID(ctx, a.ContractID)
		if err != nil {
			return err
		}
		pawner, contractPublicID = c.PawnerID, c.ContractID

		if a.Status == to || a.Status.IsTerminal() {
			res = &Result{Applied: false, Reason: "request already " + string(a.Status), Request: toDTO(a, c.ContractID)}
			return nil
		}
		if !domain.CanTransition(a.Status, to) {
			return domain.ErrInvalidTransition
		}
		now := u.now()
		applied, err := r.ActionRequests.UpdateStatusIf(ctx, a.ID, a.Status, to,
			domain.FieldUpdates{stampCol: now})
		if err != nil {
			return err
		}
		if !applied {
			res = &Result{Applied: false, Reason: "request state changed concurrently", Request: toDTO(a, c.ContractID)}
			return nil
		}

		if to == domain.StatusInvestorTransferred {
			// Record the money movement; completed once the pawner confirms.
			if err := r.Payments.Create(ctx, &paymentDomain.Payment{
				PaymentID:       id.NewID32(),
				ContractID:      c.ID,
				ActionRequestID: &a.ID,
				Kind:            paymentDomain.KindIncreaseTransfer,
				Amount:          a.Amount,
				Status:          paymentDomain.StatusProcessing,
			}); err != nil {
				return err
			}
		}

		a.Status = to
		res = &Result{Applied: true, Request: toDTO(a, c.ContractID)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		kind := notifier.KindRequestApproved
		if to == domain.StatusInvestorTransferred {
			kind = notifier.KindTransferRecorded
		}
		notifier.BestEffort(ctx, u.notifier, u.log, pawner, kind,
			map[string]any{"contract_id": contractPublicID, "request_id": requestID})
	}
	return res, nil
}

// Approve is the funder accepting the request.
func (u *Usecase) Approve(ctx context.Context, requestID string) (*Result, error) {
	return u.transition(ctx, requestID, domain.StatusInvestorApproved, "approved_at")
}

// RecordTransfer marks the funder's money as sent.
func (u *Usecase) RecordTransfer(ctx context.Context, requestID string) (*Result, error) {
	return u.transition(ctx, requestID, domain.StatusInvestorTransferred, "transferred_at")
}

// ConfirmReceived is the pawner's final confirmation. For a principal
// increase it materializes a renewal: insert the successor contract, close the
// parent, complete the request, all in one transaction. A re-run after a
// crash detects the already-created renewal by its lineage link before ever
// creating another.
func (u *Usecase) ConfirmReceived(ctx context.Context, requestID string) (*ConfirmResult, error) {
	var res *ConfirmResult
	var pawner, investor, parentPublicID string
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.ActionRequests.GetByRequestIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		probe, err := r.Contracts.GetByID(ctx, a.ContractID)
		if err != nil {
			return err
		}
		parent, err := r.Contracts.GetByContractIDForUpdate(ctx, probe.ContractID)
		if err != nil {
			return err
		}
		pawner, investor, parentPublicID = parent.PawnerID, parent.InvestorID, parent.ContractID

		switch {
		case a.Status == domain.StatusCompleted:
			// Idempotent read of the cached outcome, not a new mutation.
			res = &ConfirmResult{Applied: false, Replayed: true, Request: toDTO(a, parent.ContractID)}
			if a.Type == domain.TypePrincipalIncrease {
				child, err := r.Contracts.GetActiveChildByParentID(ctx, parent.ContractID)
				if err != nil {
					return err
				}
				res.NewContractID = child.ContractID
			}
			return nil
		case a.Status == domain.StatusCanceled:
			return domain.ErrAlreadyTerminal
		case a.Status != domain.StatusInvestorTransferred:
			res = &ConfirmResult{Applied: false, Reason: domain.ErrAwaitingFunder.Error(), Request: toDTO(a, parent.ContractID)}
			return nil
		}

		now := u.now()
		newContractID := ""
		switch a.Type {
		case domain.TypePrincipalIncrease:
			childID, err := u.materializeRenewal(ctx, r, parent, a, now)
			if err != nil {
				return err
			}
			newContractID = childID
		case domain.TypePrincipalDecrease:
			if a.Amount > parent.PrincipalAmount {
				return contractDomain.ErrPrincipalBelowZero
			}
			parent.PrincipalAmount = fincalc.Round2(parent.PrincipalAmount - a.Amount)
			parent.TotalDecreaseAmount = fincalc.Round2(parent.TotalDecreaseAmount + a.Amount)
			parent.PrincipalPaid = fincalc.Round2(parent.PrincipalPaid + a.Amount)
			parent.AmountPaid = fincalc.Round2(parent.AmountPaid + a.Amount)
			if err := r.Contracts.Save(ctx, parent); err != nil {
				return err
			}
		case domain.TypePayInterest:
			parent.InterestPaid = fincalc.Round2(parent.InterestPaid + a.Amount)
			parent.AmountPaid = fincalc.Round2(parent.AmountPaid + a.Amount)
			if err := r.Contracts.Save(ctx, parent); err != nil {
				return err
			}
		}

		if err := u.completeTransferPayment(ctx, r, parent.ID, a.ID, now); err != nil {
			return err
		}

		applied, err := r.ActionRequests.UpdateStatusIf(ctx, a.ID,
			domain.StatusInvestorTransferred, domain.StatusCompleted,
			domain.FieldUpdates{"completed_at": now})
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrInvalidTransition
		}
		a.Status = domain.StatusCompleted
		a.CompletedAt = &now
		res = &ConfirmResult{Applied: true, Request: toDTO(a, parent.ContractID), NewContractID: newContractID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Applied && res.NewContractID != "" {
		fields := map[string]any{"contract_id": parentPublicID, "new_contract_id": res.NewContractID}
		notifier.BestEffort(ctx, u.notifier, u.log, pawner, notifier.KindRenewalCreated, fields)
		notifier.BestEffort(ctx, u.notifier, u.log, investor, notifier.KindRenewalCreated, fields)
	}
	return res, nil
}

// materializeRenewal derives and inserts the successor contract and closes the
// parent. The lineage probe makes a crash-recovery re-run reuse the existing
// child instead of creating a second one.
func (u *Usecase) materializeRenewal(ctx context.Context, r uow.Repos, parent *contractDomain.Contract, a *domain.ActionRequest, now time.Time) (string, error) {
	if child, err := r.Contracts.GetActiveChildByParentID(ctx, parent.ContractID); err == nil {
		if _, err := r.Contracts.CloseIf(ctx, parent.ID, now); err != nil {
			return "", err
		}
		return child.ContractID, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, contractDomain.ErrNotFound) {
		return "", err
	}

	elapsed := elapsedDays(parent.StartDate, now)
	pro, err := fincalc.IncreaseProration(parent.PrincipalAmount, parent.MonthlyRate,
		parent.DurationDays, elapsed, a.Amount)
	if err != nil {
		return "", err
	}
	newPrincipal := pro.NewPrincipal
	if a.PrincipalAfter > 0 {
		newPrincipal = a.PrincipalAfter
	}
	terms, err := fincalc.ContractTerms(newPrincipal, parent.MonthlyRate, pro.RemainingDays)
	if err != nil {
		return "", err
	}

	// Lineage never restarts: the root id rides through every renewal.
	originalID := parent.OriginalContractID
	if originalID == "" {
		originalID = parent.ContractID
	}
	child := &contractDomain.Contract{
		ContractID:              id.NewID32(),
		PawnerID:                parent.PawnerID,
		InvestorID:              parent.InvestorID,
		DropPointID:             parent.DropPointID,
		PrincipalAmount:         newPrincipal,
		OriginalPrincipalAmount: parent.OriginalPrincipalAmount,
		TotalIncreaseAmount:     fincalc.Round2(parent.TotalIncreaseAmount + a.Amount),
		TotalDecreaseAmount:     parent.TotalDecreaseAmount,
		MonthlyRate:             parent.MonthlyRate,
		DurationDays:            pro.RemainingDays,
		StartDate:               parent.EndDate,
		EndDate:                 parent.EndDate.AddDate(0, 0, pro.RemainingDays),
		InterestAmount:          pro.InterestRemaining,
		PlatformFeeAmount:       pro.FeeRemaining,
		TotalAmount:             terms.TotalAmount,
		FundingStatus:           contractDomain.FundingDisbursed,
		PaymentStatus:           contractDomain.PaymentCompleted,
		ContractStatus:          contractDomain.StatusConfirmed,
		DeliveryStatus:          parent.DeliveryStatus,
		Redemption:              contractDomain.RedemptionNone,
		ParentContractID:        &parent.ContractID,
		OriginalContractID:      originalID,
		FundedAt:                &now,
		DisbursedAt:             &now,
		PaymentConfirmedAt:      &now,
	}
	if err := r.Contracts.Create(ctx, child); err != nil {
		return "", err
	}
	if _, err := r.Contracts.CloseIf(ctx, parent.ID, now); err != nil {
		return "", err
	}
	return child.ContractID, nil
}

func (u *Usecase) completeTransferPayment(ctx context.Context, r uow.Repos, contractID, requestID uint64, at time.Time) error {
	payments, err := r.Payments.ListByContractID(ctx, contractID)
	if err != nil {
		return err
	}
	for i := range payments {
		p := &payments[i]
		if p.ActionRequestID != nil && *p.ActionRequestID == requestID && p.Status != paymentDomain.StatusCompleted {
			if _, err := r.Payments.CompleteIf(ctx, p.ID, at); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cancel terminates a non-terminal request. Cancel after completion is
// rejected; cancel of an already-canceled request is a no-op.
func (u *Usecase) Cancel(ctx context.Context, requestID string) (*Result, error) {
	var res *Result
	var investor, contractPublicID string
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.ActionRequests.GetByRequestIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		c, err := r.Contracts.GetByID(ctx, a.ContractID)
		if err != nil {
			return err
		}
		investor, contractPublicID = c.InvestorID, c.ContractID

		if a.Status == domain.StatusCompleted {
			return domain.ErrAlreadyTerminal
		}
		if a.Status == domain.StatusCanceled {
			res = &Result{Applied: false, Reason: "request already canceled", Request: toDTO(a, c.ContractID)}
			return nil
		}
		now := u.now()
		applied, err := r.ActionRequests.UpdateStatusIf(ctx, a.ID, a.Status, domain.StatusCanceled,
			domain.FieldUpdates{"canceled_at": now})
		if err != nil {
			return err
		}
		if !applied {
			res = &Result{Applied: false, Reason: "request state changed concurrently", Request: toDTO(a, c.ContractID)}
			return nil
		}
		a.Status = domain.StatusCanceled
		a.CanceledAt = &now
		res = &Result{Applied: true, Request: toDTO(a, c.ContractID)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		notifier.BestEffort(ctx, u.notifier, u.log, investor, notifier.KindRequestCanceled,
			map[string]any{"contract_id": contractPublicID, "request_id": requestID})
	}
	return res, nil
}

// Get returns the request by public id.
func (u *Usecase) Get(ctx context.Context, requestID string) (*RequestDTO, error) {
	var dto *RequestDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.ActionRequests.GetByRequestID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		c, err := r.Contracts.GetByID(ctx, a.ContractID)
		if err != nil {
			return err
		}
		dto = toDTO(a, c.ContractID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Projection previews an action's financials without touching state.
func (u *Usecase) Projection(ctx context.Context, contractID string, amount float64, actionType string) (*Projection, error) {
	reqType, err := parseType(actionType)
	if err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, fincalc.ErrNegativeAmount
	}

	var out *Projection
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.Contracts.GetByContractID(ctx, contractID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return contractDomain.ErrNotFound
			}
			return err
		}
		now := u.now()
		elapsed := elapsedDays(c.StartDate, now)

		switch reqType {
		case domain.TypePrincipalIncrease:
			pro, err := fincalc.IncreaseProration(c.PrincipalAmount, c.MonthlyRate, c.DurationDays, elapsed, amount)
			if err != nil {
				return err
			}
			out = &Projection{
				ContractID:            c.ContractID,
				ActionType:            actionType,
				ElapsedDays:           elapsed,
				RemainingDays:         pro.RemainingDays,
				InterestToDate:        pro.InterestToDate,
				FeeToDate:             pro.FeeToDate,
				NewPrincipal:          pro.NewPrincipal,
				InterestRemaining:     pro.InterestRemaining,
				FeeRemaining:          pro.FeeRemaining,
				OriginalTotalInterest: pro.OriginalTotalInterest,
				TotalAfterAction:      pro.TotalAfterAction,
			}
			return nil
		default:
			lenderRate, feeRate, err := fincalc.SplitRate(c.MonthlyRate)
			if err != nil {
				return err
			}
			interestToDate, err := fincalc.Interest(c.PrincipalAmount, lenderRate, elapsed)
			if err != nil {
				return err
			}
			feeToDate, err := fincalc.Fee(c.PrincipalAmount, feeRate, elapsed)
			if err != nil {
				return err
			}
			out = &Projection{
				ContractID:     c.ContractID,
				ActionType:     actionType,
				ElapsedDays:    elapsed,
				RemainingDays:  c.DurationDays - elapsed,
				InterestToDate: interestToDate,
				FeeToDate:      feeToDate,
				NewPrincipal:   c.PrincipalAmount,
			}
			if reqType == domain.TypePrincipalDecrease {
				if amount > c.PrincipalAmount {
					return contractDomain.ErrPrincipalBelowZero
				}
				out.NewPrincipal = fincalc.Round2(c.PrincipalAmount - amount)
				if out.RemainingDays > 0 {
					if out.InterestRemaining, err = fincalc.Interest(out.NewPrincipal, lenderRate, out.RemainingDays); err != nil {
						return err
					}
					if out.FeeRemaining, err = fincalc.Fee(out.NewPrincipal, feeRate, out.RemainingDays); err != nil {
						return err
					}
				}
			}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireStale cancels requests that sat in awaiting_investor_payment past the
// cutoff. Returns how many were canceled.
func (u *Usecase) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	canceled := 0
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		now := u.now()
		stale, err := r.ActionRequests.ListStale(ctx, domain.StatusAwaitingInvestorPayment, now.Add(-olderThan))
		if err != nil {
			return err
		}
		for i := range stale {
			applied, err := r.ActionRequests.UpdateStatusIf(ctx, stale[i].ID,
				domain.StatusAwaitingInvestorPayment, domain.StatusCanceled,
				domain.FieldUpdates{"canceled_at": now})
			if err != nil {
				return err
			}
			if applied {
				canceled++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if canceled > 0 {
		u.log.Info("expired stale action requests", zap.Int("count", canceled))
	}
	return canceled, nil
}
