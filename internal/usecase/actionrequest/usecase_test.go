package actionrequest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	domain "gadai-backend/internal/domain/actionrequest"
	contractDomain "gadai-backend/internal/domain/contract"
	paymentDomain "gadai-backend/internal/domain/payment"
	"gadai-backend/internal/domain/uow"
	"gadai-backend/internal/notifier"
	"gadai-backend/internal/testutil/contractmock"
	"gadai-backend/internal/testutil/notifymock"
	"gadai-backend/internal/testutil/paymentmock"
	"gadai-backend/internal/testutil/redemptionmock"
	"gadai-backend/internal/testutil/requestmock"
	"gadai-backend/internal/testutil/uowmock"

	"go.uber.org/zap"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func approxEq(a, b float64) bool { return math.Abs(a-b) < 0.005 }

// activeContract is ten days into a thirty-day term at 3% monthly on 10000.
func activeContract() *contractDomain.Contract {
	start := testNow.AddDate(0, 0, -10)
	return &contractDomain.Contract{
		ID:                      7,
		ContractID:              "c1111111111111111111111111111111",
		PawnerID:                "p1111111111111111111111111111111",
		InvestorID:              "i1111111111111111111111111111111",
		DropPointID:             "d1111111111111111111111111111111",
		PrincipalAmount:         10000,
		OriginalPrincipalAmount: 10000,
		MonthlyRate:             0.03,
		DurationDays:            30,
		StartDate:               start,
		EndDate:                 start.AddDate(0, 0, 30),
		InterestAmount:          200,
		PlatformFeeAmount:       100,
		TotalAmount:             10300,
		FundingStatus:           contractDomain.FundingDisbursed,
		PaymentStatus:           contractDomain.PaymentCompleted,
		ContractStatus:          contractDomain.StatusConfirmed,
		DeliveryStatus:          contractDomain.DeliveryVerified,
		Redemption:              contractDomain.RedemptionNone,
		OriginalContractID:      "c1111111111111111111111111111111",
	}
}

type fixture struct {
	contracts *contractmock.Repo
	requests  *requestmock.Repo
	payments  *paymentmock.Repo
	notify    *notifymock.Recorder
	uc        *Usecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		contracts: &contractmock.Repo{},
		requests:  &requestmock.Repo{},
		payments:  &paymentmock.Repo{},
		notify:    &notifymock.Recorder{},
	}
	repos := uow.Repos{
		Contracts:      f.contracts,
		ActionRequests: f.requests,
		Redemptions:    &redemptionmock.Repo{},
		Payments:       f.payments,
	}
	f.uc = NewUsecase(uowmock.Immediate(repos), f.notify, zap.NewNop())
	f.uc.now = fixedNow
	return f
}

func TestCreateIncreaseRequest(t *testing.T) {
	f := newFixture(t)
	c := activeContract()
	f.contracts.GetByContractIDForUpdateFn = func(_ context.Context, id string) (*contractDomain.Contract, error) {
		if id != c.ContractID {
			t.Fatalf("unexpected contract id %s", id)
		}
		return c, nil
	}
	var created *domain.ActionRequest
	f.requests.CreateFn = func(_ context.Context, a *domain.ActionRequest) error {
		created = a
		return nil
	}

	dto, err := f.uc.Create(context.Background(), CreateRequestInput{
		ContractID: c.ContractID,
		Type:       "principal_increase",
		Amount:     5000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created == nil {
		t.Fatal("request was not persisted")
	}
	if created.Status != domain.StatusAwaitingInvestorPayment {
		t.Errorf("status = %s", created.Status)
	}
	if created.PrincipalAfter != 15000 {
		t.Errorf("principal after = %.2f, want 15000", created.PrincipalAfter)
	}
	if dto.ContractID != c.ContractID {
		t.Errorf("dto contract id = %s", dto.ContractID)
	}
	if f.notify.Sent(notifier.KindRequestCreated) != 1 {
		t.Error("expected a request-created notification")
	}
}

func TestCreateRejectsSecondActiveRequest(t *testing.T) {
	f := newFixture(t)
	c := activeContract()
	f.contracts.GetByContractIDForUpdateFn = func(context.Context, string) (*contractDomain.Contract, error) {
		return c, nil
	}
	f.requests.GetActiveByContractIDFn = func(context.Context, uint64) (*domain.ActionRequest, error) {
		return &domain.ActionRequest{ID: 3, Status: domain.StatusInvestorApproved}, nil
	}

	_, err := f.uc.Create(context.Background(), CreateRequestInput{
		ContractID: c.ContractID, Type: "pay_interest", Amount: 50,
	})
	if !errors.Is(err, domain.ErrActiveExists) {
		t.Fatalf("err = %v, want ErrActiveExists", err)
	}
}

func TestCreateGuards(t *testing.T) {
	draft := activeContract()
	draft.ContractStatus = contractDomain.StatusDraft
	draft.PaymentStatus = contractDomain.PaymentPending
	draft.FundingStatus = contractDomain.FundingPending

	redeeming := activeContract()
	redeeming.Redemption = contractDomain.RedemptionInProgress

	cases := []struct {
		name     string
		contract *contractDomain.Contract
		in       CreateRequestInput
		wantErr  error
	}{
		{"unknown type", activeContract(), CreateRequestInput{ContractID: "x", Type: "split_loan", Amount: 10}, domain.ErrUnknownType},
		{"not active", draft, CreateRequestInput{ContractID: "x", Type: "pay_interest", Amount: 10}, contractDomain.ErrInvalidTransition},
		{"redemption open", redeeming, CreateRequestInput{ContractID: "x", Type: "pay_interest", Amount: 10}, contractDomain.ErrRedemptionInProgress},
		{"decrease below zero", activeContract(), CreateRequestInput{ContractID: "x", Type: "principal_decrease", Amount: 99999}, contractDomain.ErrPrincipalBelowZero},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.contracts.GetByContractIDForUpdateFn = func(context.Context, string) (*contractDomain.Contract, error) {
				return tc.contract, nil
			}
			tc.in.ContractID = tc.contract.ContractID
			if _, err := f.uc.Create(context.Background(), tc.in); !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestApproveAdvancesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	c := activeContract()
	req := &domain.ActionRequest{
		ID: 11, RequestID: "r1111111111111111111111111111111",
		ContractID: c.ID, Type: domain.TypePayInterest,
		Status: domain.StatusAwaitingInvestorPayment, Amount: 50,
	}
	f.requests.GetByRequestIDForUpdateFn = func(context.Context, string) (*domain.ActionRequest, error) { return req, nil }
	f.contracts.GetByIDFn = func(context.Context, uint64) (*contractDomain.Contract, error) { return c, nil }
	f.requests.UpdateStatusIfFn = func(_ context.Context, _ uint64, from, to domain.Status, _ domain.FieldUpdates) (bool, error) {
		if from != domain.StatusAwaitingInvestorPayment || to != domain.StatusInvestorApproved {
			t.Fatalf("transition %s -> %s", from, to)
		}
		return true, nil
	}

	res, err := f.uc.Approve(context.Background(), req.RequestID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !res.Applied {
		t.Fatalf("not applied: %s", res.Reason)
	}
	if f.notify.Sent(notifier.KindRequestApproved) != 1 {
		t.Error("expected approval notification")
	}

	// Same call again against the already-approved row: no-op, no error.
	req.Status = domain.StatusInvestorApproved
	res, err = f.uc.Approve(context.Background(), req.RequestID)
	if err != nil {
		t.Fatalf("replayed Approve: %v", err)
	}
	if res.Applied {
		t.Error("replay must not apply")
	}
}

func TestRecordTransferCreatesProcessingPayment(t *testing.T) {
	f := newFixture(t)
	c := activeContract()
	req := &domain.ActionRequest{
		ID: 11, RequestID: "r1111111111111111111111111111111",
		ContractID: c.ID, Type: domain.TypePrincipalIncrease,
		Status: domain.StatusInvestorApproved, Amount: 5000,
	}
	f.requests.GetByRequestIDForUpdateFn = func(context.Context, string) (*domain.ActionRequest, error) { return req, nil }
	f.contracts.GetByIDFn = func(context.Context, uint64) (*contractDomain.Contract, error) { return c, nil }
	f.requests.UpdateStatusIfFn = func(_ context.Context, _ uint64, _, _ domain.Status, _ domain.FieldUpdates) (bool, error) {
		return true, nil
	}
	var payment *paymentDomain.Payment
	f.payments.CreateFn = func(_ context.Context, p *paymentDomain.Payment) error {
		payment = p
		return nil
	}

	res, err := f.uc.RecordTransfer(context.Background(), req.RequestID)
	if err != nil {
		t.Fatalf("RecordTransfer: %v", err)
	}
	if !res.Applied {
		t.Fatalf("not applied: %s", res.Reason)
	}
	if payment == nil {
		t.Fatal("no payment recorded")
	}
	if payment.Kind != paymentDomain.KindIncreaseTransfer || payment.Status != paymentDomain.StatusProcessing {
		t.Errorf("payment = %s/%s", payment.Kind, payment.Status)
	}
	if payment.ActionRequestID == nil || *payment.ActionRequestID != req.ID {
		t.Error("payment not linked to the request")
	}
}

func TestConfirmReceivedMaterializesRenewal(t *testing.T) {
	f := newFixture(t)
	parent := activeContract()
	req := &domain.ActionRequest{
		ID: 11, RequestID: "r1111111111111111111111111111111",
		ContractID: parent.ID, Type: domain.TypePrincipalIncrease,
		Status: domain.StatusInvestorTransferred, Amount: 5000, PrincipalAfter: 15000,
	}
	f.requests.GetByRequestIDForUpdateFn = func(context.Context, string) (*domain.ActionRequest, error) { return req, nil }
	f.contracts.GetByIDFn = func(context.Context, uint64) (*contractDomain.Contract, error) { return parent, nil }
	f.contracts.GetByContractIDForUpdateFn = func(context.Context, string) (*contractDomain.Contract, error) { return parent, nil }

	var child *contractDomain.Contract
	f.contracts.CreateFn = func(_ context.Context, c *contractDomain.Contract) error {
		child = c
		return nil
	}
	parentClosed := false
	f.contracts.CloseIfFn = func(_ context.Context, id uint64, _ time.Time) (bool, error) {
		if id != parent.ID {
			t.Fatalf("closed wrong contract %d", id)
		}
		parentClosed = true
		return true, nil
	}
	transferID := req.ID
	f.payments.ListByContractIDFn = func(context.Context, uint64) ([]paymentDomain.Payment, error) {
		return []paymentDomain.Payment{{
			ID: 21, ContractID: parent.ID, ActionRequestID: &transferID,
			Kind: paymentDomain.KindIncreaseTransfer, Status: paymentDomain.StatusProcessing,
		}}, nil
	}
	paymentCompleted := false
	f.payments.CompleteIfFn = func(_ context.Context, id uint64, _ time.Time) (bool, error) {
		paymentCompleted = id == 21
		return true, nil
	}
	f.requests.UpdateStatusIfFn = func(_ context.Context, _ uint64, from, to domain.Status, _ domain.FieldUpdates) (bool, error) {
		if from != domain.StatusInvestorTransferred || to != domain.StatusCompleted {
			t.Fatalf("transition %s -> %s", from, to)
		}
		return true, nil
	}

	res, err := f.uc.ConfirmReceived(context.Background(), req.RequestID)
	if err != nil {
		t.Fatalf("ConfirmReceived: %v", err)
	}
	if !res.Applied || res.Replayed {
		t.Fatalf("applied=%v replayed=%v reason=%s", res.Applied, res.Replayed, res.Reason)
	}
	if child == nil {
		t.Fatal("no renewal contract created")
	}
	if res.NewContractID != child.ContractID {
		t.Errorf("NewContractID = %s, want %s", res.NewContractID, child.ContractID)
	}
	if !parentClosed {
		t.Error("parent contract was not closed")
	}
	if !paymentCompleted {
		t.Error("transfer payment was not completed")
	}

	if child.PrincipalAmount != 15000 {
		t.Errorf("child principal = %.2f", child.PrincipalAmount)
	}
	if child.DurationDays != 20 {
		t.Errorf("child duration = %d, want remaining 20", child.DurationDays)
	}
	if !child.StartDate.Equal(parent.EndDate) {
		t.Errorf("child start = %v, want parent end %v", child.StartDate, parent.EndDate)
	}
	if !approxEq(child.InterestAmount, 200.00) || !approxEq(child.PlatformFeeAmount, 100.00) {
		t.Errorf("child interest/fee = %.2f/%.2f", child.InterestAmount, child.PlatformFeeAmount)
	}
	if child.ParentContractID == nil || *child.ParentContractID != parent.ContractID {
		t.Error("child not linked to parent")
	}
	if child.OriginalContractID != parent.OriginalContractID {
		t.Errorf("lineage root = %s", child.OriginalContractID)
	}
	if child.TotalIncreaseAmount != 5000 {
		t.Errorf("cumulative increase = %.2f", child.TotalIncreaseAmount)
	}
	if child.FundingStatus != contractDomain.FundingDisbursed ||
		child.PaymentStatus != contractDomain.PaymentCompleted ||
		child.ContractStatus != contractDomain.StatusConfirmed {
		t.Errorf("child statuses = %s/%s/%s", child.FundingStatus, child.PaymentStatus, child.ContractStatus)
	}
	if child.AmountPaid != 0 || child.InterestPaid != 0 || child.ExtensionCount != 0 {
		t.Error("paid counters must reset on renewal")
	}
	if f.notify.Sent(notifier.KindRenewalCreated) != 2 {
		t.Error("expected renewal notifications to both parties")
	}
}

func TestConfirmReceivedReplaysCompletedRequest(t *testing.T) {
	f := newFixture(t)
	parent := activeContract()
	done := testNow.Add(-time.Hour)
	req := &domain.ActionRequest{
		ID: 11, RequestID: "r1111111111111111111111111111111",
		ContractID: parent.ID, Type: domain.TypePrincipalIncrease,
		Status: domain.StatusCompleted, Amount: 5000, CompletedAt: &done,
	}
	f.requests.GetByRequestIDForUpdateFn = func(context.Context, string) (*domain.ActionRequest, error) { return req, nil }
	f.contracts.GetByIDFn = func(context.Context, uint64) (*contractDomain.Contract, error) { return parent, nil }
	f.contracts.GetByContractIDForUpdateFn = func(context.Context, string) (*contractDomain.Contract, error) { return parent, nil }
	f.contracts.GetActiveChildByParentIDFn = func(context.Context, string) (*contractDomain.Contract, error) {
		return &contractDomain.Contract{ContractID: "c2222222222222222222222222222222"}, nil
	}
	f.contracts.CreateFn = func(context.Context, *contractDomain.Contract) error {
		t.Fatal("replay must not create another renewal")
		return nil
	}

	res, err := f.uc.ConfirmReceived(context.Background(), req.RequestID)
	if err != nil {
		t.Fatalf("ConfirmReceived: %v", err)
	}
	if res.Applied || !res.Replayed {
		t.Fatalf("applied=%v replayed=%v", res.Applied, res.Replayed)
	}
	if res.NewContractID != "c2222222222222222222222222222222" {
		t.Errorf("NewContractID = %s", res.NewContractID)
	}
}

func TestConfirmReceivedReusesChildAfterCrash(t *testing.T) {
	// Renewal exists but the request never reached completed: the lineage probe
	// finds the child and the re-run completes bookkeeping without a duplicate.
	f := newFixture(t)
	parent := activeContract()
	req := &domain.ActionRequest{
		ID: 11, RequestID: "r1111111111111111111111111111111",
		ContractID: parent.ID, Type: domain.TypePrincipalIncrease,
		Status: domain.StatusInvestorTransferred, Amount: 5000,
	}
	f.requests.GetByRequestIDForUpdateFn = func(context.Context, string) (*domain.ActionRequest, error) { return req, nil }
	f.contracts.GetByIDFn = func(context.Context, uint64) (*contractDomain.Contract, error) { return parent, nil }
	f.contracts.GetByContractIDForUpdateFn = func(context.Context, string) (*contractDomain.Contract, error) { return parent, nil }
	f.contracts.GetActiveChildByParentIDFn = func(context.Context, string) (*contractDomain.Contract, error) {
		return &contractDomain.Contract{ContractID: "c2222222222222222222222222222222"}, nil
	}
	f.contracts.CreateFn = func(context.Context, *contractDomain.Contract) error {
		t.Fatal("recovery must reuse the existing renewal")
		return nil
	}
	f.contracts.CloseIfFn = func(context.Context, uint64, time.Time) (bool, error) { return true, nil }
	f.requests.UpdateStatusIfFn = func(_ context.Context, _ uint64, _, _ domain.Status, _ domain.FieldUpdates) (bool, error) {
		return true, nil
	}

	res, err := f.uc.ConfirmReceived(context.Background(), req.RequestID)
	if err != nil {
		t.Fatalf("ConfirmReceived: %v", err)
	}
	if !res.Applied {
		t.Fatalf("not applied: %s", res.Reason)
	}
	if res.NewContractID != "c2222222222222222222222222222222" {
		t.Errorf("NewContractID = %s", res.NewContractID)
	}
}

func TestConfirmReceivedGuards(t *testing.T) {
	parent := activeContract()
	mk := func(status domain.Status) *domain.ActionRequest {
		return &domain.ActionRequest{
			ID: 11, RequestID: "r1111111111111111111111111111111",
			ContractID: parent.ID, Type: domain.TypePrincipalIncrease,
			Status: status, Amount: 5000,
		}
	}

	t.Run("canceled is terminal", func(t *testing.T) {
		f := newFixture(t)
		req := mk(domain.StatusCanceled)
		f.requests.GetByRequestIDForUpdateFn = func(context.Context, string) (*domain.ActionRequest, error) { return req, nil }
		f.contracts.GetByIDFn = func(context.Context, uint64) (*contractDomain.Contract, error) { return parent, nil }
		f.contracts.GetByContractIDForUpdateFn = func(context.Context, string) (*contractDomain.Contract, error) { return parent, nil }
		if _, err := f.uc.ConfirmReceived(context.Background(), req.RequestID); !errors.Is(err, domain.ErrAlreadyTerminal) {
			t.Fatalf("err = %v, want ErrAlreadyTerminal", err)
		}
	})

	t.Run("waiting on funder", func(t *testing.T) {
		f := newFixture(t)
		req := mk(domain.StatusInvestorApproved)
		f.requests.GetByRequestIDForUpdateFn = func(context.Context, string) (*domain.ActionRequest, error) { return req, nil }
		f.contracts.GetByIDFn = func(context.Context, uint64) (*contractDomain.Contract, error) { return parent, nil }
		f.contracts.GetByContractIDForUpdateFn = func(context.Context, string) (*contractDomain.Contract, error) { return parent, nil }
		res, err := f.uc.ConfirmReceived(context.Background(), req.RequestID)
		if err != nil {
			t.Fatalf("ConfirmReceived: %v", err)
		}
		if res.Applied {
			t.Error("must not apply before the funder transfers")
		}
		if res.Reason == "" {
			t.Error("expected a reason")
		}
	})
}

func TestConfirmReceivedDecreaseMutatesParent(t *testing.T) {
	f := newFixture(t)
	parent := activeContract()
	req := &domain.ActionRequest{
		ID: 11, RequestID: "r1111111111111111111111111111111",
		ContractID: parent.ID, Type: domain.TypePrincipalDecrease,
		Status: domain.StatusInvestorTransferred, Amount: 4000, PrincipalAfter: 6000,
	}
	f.requests.GetByRequestIDForUpdateFn = func(context.Context, string) (*domain.ActionRequest, error) { return req, nil }
	f.contracts.GetByIDFn = func(context.Context, uint64) (*contractDomain.Contract, error) { return parent, nil }
	f.contracts.GetByContractIDForUpdateFn = func(context.Context, string) (*contractDomain.Contract, error) { return parent, nil }
	saved := false
	f.contracts.SaveFn = func(_ context.Context, c *contractDomain.Contract) error {
		saved = true
		if c.PrincipalAmount != 6000 {
			t.Errorf("principal = %.2f, want 6000", c.PrincipalAmount)
		}
		if c.TotalDecreaseAmount != 4000 {
			t.Errorf("total decrease = %.2f", c.TotalDecreaseAmount)
		}
		return nil
	}
	f.contracts.CreateFn = func(context.Context, *contractDomain.Contract) error {
		t.Fatal("decrease must not create a renewal")
		return nil
	}
	f.requests.UpdateStatusIfFn = func(_ context.Context, _ uint64, _, _ domain.Status, _ domain.FieldUpdates) (bool, error) {
		return true, nil
	}

	res, err := f.uc.ConfirmReceived(context.Background(), req.RequestID)
	if err != nil {
		t.Fatalf("ConfirmReceived: %v", err)
	}
	if !res.Applied || res.NewContractID != "" {
		t.Fatalf("applied=%v new=%s", res.Applied, res.NewContractID)
	}
	if !saved {
		t.Error("parent was not saved")
	}
}

func TestCancel(t *testing.T) {
	parent := activeContract()

	t.Run("cancels a pending request", func(t *testing.T) {
		f := newFixture(t)
		req := &domain.ActionRequest{
			ID: 11, RequestID: "r1111111111111111111111111111111",
			ContractID: parent.ID, Status: domain.StatusAwaitingInvestorPayment,
		}
		f.requests.GetByRequestIDForUpdateFn = func(context.Context, string) (*domain.ActionRequest, error) { return req, nil }
		f.contracts.GetByIDFn = func(context.Context, uint64) (*contractDomain.Contract, error) { return parent, nil }
		f.requests.UpdateStatusIfFn = func(_ context.Context, _ uint64, _, to domain.Status, _ domain.FieldUpdates) (bool, error) {
			if to != domain.StatusCanceled {
				t.Fatalf("to = %s", to)
			}
			return true, nil
		}
		res, err := f.uc.Cancel(context.Background(), req.RequestID)
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if !res.Applied {
			t.Fatalf("not applied: %s", res.Reason)
		}
	})

	t.Run("refuses after completion", func(t *testing.T) {
		f := newFixture(t)
		req := &domain.ActionRequest{ID: 11, RequestID: "r1", ContractID: parent.ID, Status: domain.StatusCompleted}
		f.requests.GetByRequestIDForUpdateFn = func(context.Context, string) (*domain.ActionRequest, error) { return req, nil }
		f.contracts.GetByIDFn = func(context.Context, uint64) (*contractDomain.Contract, error) { return parent, nil }
		if _, err := f.uc.Cancel(context.Background(), "r1"); !errors.Is(err, domain.ErrAlreadyTerminal) {
			t.Fatalf("err = %v, want ErrAlreadyTerminal", err)
		}
	})

	t.Run("idempotent on canceled", func(t *testing.T) {
		f := newFixture(t)
		req := &domain.ActionRequest{ID: 11, RequestID: "r1", ContractID: parent.ID, Status: domain.StatusCanceled}
		f.requests.GetByRequestIDForUpdateFn = func(context.Context, string) (*domain.ActionRequest, error) { return req, nil }
		f.contracts.GetByIDFn = func(context.Context, uint64) (*contractDomain.Contract, error) { return parent, nil }
		res, err := f.uc.Cancel(context.Background(), "r1")
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if res.Applied {
			t.Error("second cancel must be a no-op")
		}
	})
}

func TestProjectionIncrease(t *testing.T) {
	f := newFixture(t)
	c := activeContract()
	f.contracts.GetByContractIDFn = func(context.Context, string) (*contractDomain.Contract, error) { return c, nil }

	p, err := f.uc.Projection(context.Background(), c.ContractID, 5000, "principal_increase")
	if err != nil {
		t.Fatalf("Projection: %v", err)
	}
	if p.ElapsedDays != 10 || p.RemainingDays != 20 {
		t.Errorf("elapsed/remaining = %d/%d", p.ElapsedDays, p.RemainingDays)
	}
	if !approxEq(p.InterestToDate, 66.67) || !approxEq(p.FeeToDate, 33.33) {
		t.Errorf("to-date legs = %.2f/%.2f", p.InterestToDate, p.FeeToDate)
	}
	if p.NewPrincipal != 15000 {
		t.Errorf("new principal = %.2f", p.NewPrincipal)
	}
	if !approxEq(p.InterestRemaining, 200.00) {
		t.Errorf("interest remaining = %.2f", p.InterestRemaining)
	}
	if !approxEq(p.OriginalTotalInterest, p.TotalAfterAction) {
		t.Errorf("reconciliation broke: %.2f vs %.2f", p.OriginalTotalInterest, p.TotalAfterAction)
	}
}

func TestExpireStale(t *testing.T) {
	f := newFixture(t)
	old := testNow.Add(-10 * time.Minute)
	f.requests.ListStaleFn = func(_ context.Context, status domain.Status, before time.Time) ([]domain.ActionRequest, error) {
		if status != domain.StatusAwaitingInvestorPayment {
			t.Fatalf("status = %s", status)
		}
		if !before.Before(testNow) {
			t.Fatal("cutoff must be in the past")
		}
		return []domain.ActionRequest{
			{ID: 1, Status: status, CreatedAt: old},
			{ID: 2, Status: status, CreatedAt: old},
		}, nil
	}
	var canceledIDs []uint64
	f.requests.UpdateStatusIfFn = func(_ context.Context, id uint64, from, to domain.Status, _ domain.FieldUpdates) (bool, error) {
		if from != domain.StatusAwaitingInvestorPayment || to != domain.StatusCanceled {
			t.Fatalf("transition %s -> %s", from, to)
		}
		canceledIDs = append(canceledIDs, id)
		return true, nil
	}

	n, err := f.uc.ExpireStale(context.Background(), StaleTimeout)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if n != 2 || len(canceledIDs) != 2 {
		t.Fatalf("canceled %d (%v)", n, canceledIDs)
	}
}
