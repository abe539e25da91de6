package mysql

import (
	"testing"
	"time"

	contractDomain "gadai-backend/internal/domain/contract"
	"gadai-backend/pkg/id"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// --- SQLite-friendly schemas only for tests (no ENUM) ---

type contractSQLite struct {
	ID                      uint64         `gorm:"primaryKey;column:id"`
	ContractID              string         `gorm:"size:32;column:contract_id"`
	PawnerID                string         `gorm:"size:32;column:pawner_id"`
	InvestorID              string         `gorm:"size:32;column:investor_id"`
	DropPointID             string         `gorm:"size:32;column:drop_point_id"`
	PrincipalAmount         float64        `gorm:"column:principal_amount"`
	OriginalPrincipalAmount float64        `gorm:"column:original_principal_amount"`
	TotalIncreaseAmount     float64        `gorm:"column:total_increase_amount"`
	TotalDecreaseAmount     float64        `gorm:"column:total_decrease_amount"`
	MonthlyRate             float64        `gorm:"column:monthly_rate"`
	DurationDays            int            `gorm:"column:duration_days"`
	StartDate               time.Time      `gorm:"column:start_date"`
	EndDate                 time.Time      `gorm:"column:end_date"`
	InterestAmount          float64        `gorm:"column:interest_amount"`
	PlatformFeeAmount       float64        `gorm:"column:platform_fee_amount"`
	TotalAmount             float64        `gorm:"column:total_amount"`
	FundingStatus           string         `gorm:"type:text;column:funding_status"` // ← no enum
	PaymentStatus           string         `gorm:"type:text;column:payment_status"`
	ContractStatus          string         `gorm:"type:text;column:contract_status"`
	DeliveryStatus          string         `gorm:"type:text;column:delivery_status"`
	RedemptionStatus        string         `gorm:"type:text;column:redemption_status"`
	ParentContractID        *string        `gorm:"size:32;column:parent_contract_id"`
	OriginalContractID      string         `gorm:"size:32;column:original_contract_id"`
	ExtensionCount          int            `gorm:"column:extension_count"`
	AmountPaid              float64        `gorm:"column:amount_paid"`
	InterestPaid            float64        `gorm:"column:interest_paid"`
	PrincipalPaid           float64        `gorm:"column:principal_paid"`
	FundedAt                *time.Time     `gorm:"column:funded_at"`
	DisbursedAt             *time.Time     `gorm:"column:disbursed_at"`
	PaymentConfirmedAt      *time.Time     `gorm:"column:payment_confirmed_at"`
	DeliveredAt             *time.Time     `gorm:"column:delivered_at"`
	VerifiedAt              *time.Time     `gorm:"column:verified_at"`
	ReturnedAt              *time.Time     `gorm:"column:returned_at"`
	ClosedAt                *time.Time     `gorm:"column:closed_at"`
	CreatedAt               time.Time      `gorm:"column:created_at"`
	UpdatedAt               time.Time      `gorm:"column:updated_at"`
	DeletedAt               gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (contractSQLite) TableName() string { return "contracts" }

type actionRequestSQLite struct {
	ID                 uint64         `gorm:"primaryKey;column:id"`
	RequestID          string         `gorm:"size:32;column:request_id"`
	ContractID         uint64         `gorm:"column:contract_id"`
	Type               string         `gorm:"type:text;column:request_type"`
	Status             string         `gorm:"type:text;column:request_status"`
	Amount             float64        `gorm:"column:amount"`
	PrincipalAfter     float64        `gorm:"column:principal_after"`
	SigningArtifactRef string         `gorm:"column:signing_artifact_ref"`
	ApprovedAt         *time.Time     `gorm:"column:approved_at"`
	TransferredAt      *time.Time     `gorm:"column:transferred_at"`
	CompletedAt        *time.Time     `gorm:"column:completed_at"`
	CanceledAt         *time.Time     `gorm:"column:canceled_at"`
	CreatedAt          time.Time      `gorm:"column:created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (actionRequestSQLite) TableName() string { return "action_requests" }

type redemptionSQLite struct {
	ID                uint64         `gorm:"primaryKey;column:id"`
	RedemptionID      string         `gorm:"size:32;column:redemption_id"`
	ContractID        uint64         `gorm:"column:contract_id"`
	InterestAmount    float64        `gorm:"column:interest_amount"`
	PlatformFeeAmount float64        `gorm:"column:platform_fee_amount"`
	InvestorNetProfit float64        `gorm:"column:investor_net_profit"`
	Status            string         `gorm:"type:text;column:request_status"`
	PawnerConfirmedAt *time.Time     `gorm:"column:pawner_confirmed_at"`
	CompletedAt       *time.Time     `gorm:"column:completed_at"`
	CreatedAt         time.Time      `gorm:"column:created_at"`
	UpdatedAt         time.Time      `gorm:"column:updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (redemptionSQLite) TableName() string { return "redemption_requests" }

type paymentSQLite struct {
	ID              uint64         `gorm:"primaryKey;column:id"`
	PaymentID       string         `gorm:"size:32;column:payment_id"`
	ContractID      uint64         `gorm:"column:contract_id"`
	ActionRequestID *uint64        `gorm:"column:action_request_id"`
	Kind            string         `gorm:"type:text;column:kind"`
	Amount          float64        `gorm:"column:amount"`
	Status          string         `gorm:"type:text;column:status"`
	CompletedAt     *time.Time     `gorm:"column:completed_at"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (paymentSQLite) TableName() string { return "payments" }

// openTestDB creates an in-memory sqlite DB and migrates ONLY the sqlite-safe
// schemas.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// IMPORTANT: migrate the sqlite-safe models, NOT the domain models.
	if err := db.AutoMigrate(&contractSQLite{}, &actionRequestSQLite{}, &redemptionSQLite{}, &paymentSQLite{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeContract(contractID string) *contractDomain.Contract {
	now := time.Now().UTC()
	return &contractDomain.Contract{
		ContractID:              contractID,
		PawnerID:                id.NewID32(),
		InvestorID:              id.NewID32(),
		DropPointID:             id.NewID32(),
		PrincipalAmount:         10_000.00,
		OriginalPrincipalAmount: 10_000.00,
		MonthlyRate:             0.03,
		DurationDays:            30,
		StartDate:               now,
		EndDate:                 now.AddDate(0, 0, 30),
		InterestAmount:          200.00,
		PlatformFeeAmount:       100.00,
		TotalAmount:             10_300.00,
		FundingStatus:           contractDomain.FundingPending,
		PaymentStatus:           contractDomain.PaymentPending,
		ContractStatus:          contractDomain.StatusDraft,
		DeliveryStatus:          contractDomain.DeliveryNone,
		Redemption:              contractDomain.RedemptionNone,
		OriginalContractID:      contractID,
	}
}
