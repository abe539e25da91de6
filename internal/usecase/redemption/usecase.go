package redemption

import (
	"context"
	"errors"
	"time"

	contractDomain "gadai-backend/internal/domain/contract"
	paymentDomain "gadai-backend/internal/domain/payment"
	domain "gadai-backend/internal/domain/redemption"
	"gadai-backend/internal/domain/uow"
	"gadai-backend/internal/notifier"
	"gadai-backend/pkg/fincalc"
	"gadai-backend/pkg/id"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

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

func toDTO(rr *domain.RedemptionRequest, contractPublicID string) *RedemptionDTO {
	return &RedemptionDTO{
		RedemptionID:      rr.RedemptionID,
		ContractID:        contractPublicID,
		Status:            string(rr.Status),
		InterestAmount:    rr.InterestAmount,
		PlatformFeeAmount: rr.PlatformFeeAmount,
		InvestorNetProfit: rr.InvestorNetProfit,
		PawnerConfirmedAt: rr.PawnerConfirmedAt,
		CompletedAt:       rr.CompletedAt,
		CreatedAt:         rr.CreatedAt,
	}
}

func elapsedDays(start, now time.Time) int {
	return int(now.Sub(start).Hours() / 24)
}

// Initiate opens a full payoff on an active contract. The settlement is priced
// on interest accrued to date; re-initiating while one is open returns the
// existing request instead of a second one.
func (u *Usecase) Initiate(ctx context.Context, contractID string) (*Result, error) {
	var res *Result
	var investor string
	err := u.uow.WithinContractTx(ctx, contractID, func(r uow.Repos, c *contractDomain.Contract) error {
		investor = c.InvestorID
		if c.IsClosed() {
			return contractDomain.ErrContractClosed
		}
		if !c.IsActive() {
			return contractDomain.ErrInvalidTransition
		}
		if c.Redemption != contractDomain.RedemptionNone {
			open, err := r.Redemptions.GetOpenByContractID(ctx, c.ID)
			if err == nil {
				res = &Result{Applied: false, Reason: "redemption already in progress", Redemption: toDTO(open, c.ContractID)}
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			return contractDomain.ErrRedemptionInProgress
		}

		now := u.now()
		elapsed := elapsedDays(c.StartDate, now)
		settlement, err := fincalc.RedemptionSettlement(c.PrincipalAmount, c.MonthlyRate, elapsed)
		if err != nil {
			return err
		}

		applied, err := r.Contracts.UpdateRedemptionStatusIf(ctx, c.ID,
			contractDomain.RedemptionNone, contractDomain.RedemptionInProgress, nil)
		if err != nil {
			return err
		}
		if !applied {
			return contractDomain.ErrRedemptionInProgress
		}

		rr := &domain.RedemptionRequest{
			RedemptionID:      id.NewID32(),
			ContractID:        c.ID,
			InterestAmount:    settlement.InterestAmount,
			PlatformFeeAmount: settlement.PlatformFeeAmount,
			InvestorNetProfit: settlement.InvestorNetProfit,
			Status:            domain.StatusPending,
		}
		if err := r.Redemptions.Create(ctx, rr); err != nil {
			return err
		}
		// Settlement = principal back plus accrued interest.
		if err := r.Payments.Create(ctx, &paymentDomain.Payment{
			PaymentID:  id.NewID32(),
			ContractID: c.ID,
			Kind:       paymentDomain.KindRedemption,
			Amount:     fincalc.Round2(c.PrincipalAmount + settlement.InterestAmount),
			Status:     paymentDomain.StatusPending,
		}); err != nil {
			return err
		}
		res = &Result{Applied: true, Redemption: toDTO(rr, c.ContractID)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		notifier.BestEffort(ctx, u.notifier, u.log, investor, notifier.KindRedemptionInitiated,
			map[string]any{"contract_id": contractID, "redemption_id": res.Redemption.RedemptionID,
				"investor_net_profit": res.Redemption.InvestorNetProfit})
	}
	return res, nil
}

// ConfirmPawnerDelivery is the pawner confirming settlement and item pickup.
func (u *Usecase) ConfirmPawnerDelivery(ctx context.Context, redemptionID string) (*Result, error) {
	var res *Result
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		rr, err := r.Redemptions.GetByRedemptionIDForUpdate(ctx, redemptionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		c, err := r.Contracts.GetByID(ctx, rr.ContractID)
		if err != nil {
			return err
		}
		if rr.Status != domain.StatusPending {
			res = &Result{Applied: false, Reason: "redemption already " + string(rr.Status), Redemption: toDTO(rr, c.ContractID)}
			return nil
		}
		now := u.now()
		applied, err := r.Redemptions.UpdateStatusIf(ctx, rr.ID,
			domain.StatusPending, domain.StatusPawnerConfirmed,
			domain.FieldUpdates{"pawner_confirmed_at": now})
		if err != nil {
			return err
		}
		if !applied {
			res = &Result{Applied: false, Reason: "redemption state changed concurrently", Redemption: toDTO(rr, c.ContractID)}
			return nil
		}
		rr.Status = domain.StatusPawnerConfirmed
		rr.PawnerConfirmedAt = &now
		res = &Result{Applied: true, Redemption: toDTO(rr, c.ContractID)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ConfirmInvestorReceipt is the funder's final acknowledgement: the settlement
// arrived, the item went back, the contract closes for good.
func (u *Usecase) ConfirmInvestorReceipt(ctx context.Context, redemptionID string) (*Result, error) {
	var res *Result
	var pawner, contractPublicID string
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		rr, err := r.Redemptions.GetByRedemptionIDForUpdate(ctx, redemptionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		probe, err := r.Contracts.GetByID(ctx, rr.ContractID)
		if err != nil {
			return err
		}
		c, err := r.Contracts.GetByContractIDForUpdate(ctx, probe.ContractID)
		if err != nil {
			return err
		}
		pawner, contractPublicID = c.PawnerID, c.ContractID

		switch rr.Status {
		case domain.StatusCompleted:
			res = &Result{Applied: false, Reason: "redemption already completed", Redemption: toDTO(rr, c.ContractID)}
			return nil
		case domain.StatusPending:
			res = &Result{Applied: false, Reason: "waiting on pawner confirmation", Redemption: toDTO(rr, c.ContractID)}
			return nil
		}

		now := u.now()
		applied, err := r.Redemptions.UpdateStatusIf(ctx, rr.ID,
			domain.StatusPawnerConfirmed, domain.StatusCompleted,
			domain.FieldUpdates{"completed_at": now})
		if err != nil {
			return err
		}
		if !applied {
			res = &Result{Applied: false, Reason: "redemption state changed concurrently", Redemption: toDTO(rr, c.ContractID)}
			return nil
		}

		if _, err := r.Contracts.UpdateRedemptionStatusIf(ctx, c.ID,
			contractDomain.RedemptionInProgress, contractDomain.RedemptionCompleted, nil); err != nil {
			return err
		}
		if c.DeliveryStatus != contractDomain.DeliveryReturned {
			if _, err := r.Contracts.UpdateDeliveryStatusIf(ctx, c.ID,
				c.DeliveryStatus, contractDomain.DeliveryReturned, nil); err != nil {
				return err
			}
		}
		if _, err := r.Contracts.CloseIf(ctx, c.ID, now); err != nil {
			return err
		}
		if err := u.completeRedemptionPayment(ctx, r, c.ID, now); err != nil {
			return err
		}

		rr.Status = domain.StatusCompleted
		rr.CompletedAt = &now
		res = &Result{Applied: true, Redemption: toDTO(rr, c.ContractID)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Applied {
		notifier.BestEffort(ctx, u.notifier, u.log, pawner, notifier.KindItemReturned,
			map[string]any{"contract_id": contractPublicID, "redemption_id": redemptionID})
	}
	return res, nil
}

func (u *Usecase) completeRedemptionPayment(ctx context.Context, r uow.Repos, contractID uint64, at time.Time) error {
	payments, err := r.Payments.ListByContractID(ctx, contractID)
	if err != nil {
		return err
	}
	for i := range payments {
		p := &payments[i]
		if p.Kind == paymentDomain.KindRedemption && p.Status != paymentDomain.StatusCompleted {
			if _, err := r.Payments.CompleteIf(ctx, p.ID, at); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get returns the redemption by public id.
func (u *Usecase) Get(ctx context.Context, redemptionID string) (*RedemptionDTO, error) {
	var dto *RedemptionDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		rr, err := r.Redemptions.GetByRedemptionID(ctx, redemptionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		c, err := r.Contracts.GetByID(ctx, rr.ContractID)
		if err != nil {
			return err
		}
		dto = toDTO(rr, c.ContractID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}
