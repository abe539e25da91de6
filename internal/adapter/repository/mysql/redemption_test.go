package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	redemptionDomain "gadai-backend/internal/domain/redemption"
	"gadai-backend/pkg/id"

	"gorm.io/gorm"
)

func makeRedemption(t *testing.T, db *gorm.DB, contractID uint64) *redemptionDomain.RedemptionRequest {
	t.Helper()
	repo := NewRedemptionRepository(db)
	rr := &redemptionDomain.RedemptionRequest{
		RedemptionID:      id.NewID32(),
		ContractID:        contractID,
		InterestAmount:    300.00,
		PlatformFeeAmount: 100.00,
		InvestorNetProfit: 200.00,
		Status:            redemptionDomain.StatusPending,
	}
	if err := repo.Create(context.Background(), rr); err != nil {
		t.Fatalf("create redemption: %v", err)
	}
	return rr
}

func TestRedemptionStatusTransition(t *testing.T) {
	db := openTestDB(t)
	repo := NewRedemptionRepository(db)
	ctx := context.Background()
	rr := makeRedemption(t, db, 1)

	now := time.Now().UTC()
	applied, err := repo.UpdateStatusIf(ctx, rr.ID,
		redemptionDomain.StatusPending, redemptionDomain.StatusPawnerConfirmed,
		redemptionDomain.FieldUpdates{"pawner_confirmed_at": now})
	if err != nil {
		t.Fatalf("UpdateStatusIf: %v", err)
	}
	if !applied {
		t.Fatal("expected transition to apply")
	}

	// Same transition again: the row is no longer pending.
	applied, err = repo.UpdateStatusIf(ctx, rr.ID,
		redemptionDomain.StatusPending, redemptionDomain.StatusPawnerConfirmed, nil)
	if err != nil {
		t.Fatalf("replayed UpdateStatusIf: %v", err)
	}
	if applied {
		t.Fatal("replay must not apply")
	}

	got, err := repo.GetByRedemptionID(ctx, rr.RedemptionID)
	if err != nil {
		t.Fatalf("GetByRedemptionID: %v", err)
	}
	if got.Status != redemptionDomain.StatusPawnerConfirmed {
		t.Errorf("status = %s", got.Status)
	}
	if got.PawnerConfirmedAt == nil {
		t.Error("pawner_confirmed_at not stamped")
	}
}

func TestGetOpenByContractID(t *testing.T) {
	db := openTestDB(t)
	repo := NewRedemptionRepository(db)
	ctx := context.Background()

	if _, err := repo.GetOpenByContractID(ctx, 9); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}

	rr := makeRedemption(t, db, 9)
	got, err := repo.GetOpenByContractID(ctx, 9)
	if err != nil {
		t.Fatalf("GetOpenByContractID: %v", err)
	}
	if got.RedemptionID != rr.RedemptionID {
		t.Errorf("got %s", got.RedemptionID)
	}

	// Completed redemptions no longer count as open.
	if _, err := repo.UpdateStatusIf(ctx, rr.ID, redemptionDomain.StatusPending, redemptionDomain.StatusCompleted,
		redemptionDomain.FieldUpdates{"completed_at": time.Now().UTC()}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := repo.GetOpenByContractID(ctx, 9); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound after completion", err)
	}
}
