package fincalc

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	// PlatformFeeRate is the platform's fixed monthly fee component. It is kept
	// separate from the lender's interest component so each leg can be accounted
	// to a different beneficiary.
	PlatformFeeRate = 0.01

	daysPerMonth = 30
)

var (
	ErrNegativeAmount  = errors.New("fincalc: negative amount")
	ErrInvalidRate     = errors.New("fincalc: invalid rate")
	ErrInvalidDuration = errors.New("fincalc: duration must be positive")
	ErrRateBelowFee    = errors.New("fincalc: rate below platform fee component")
	ErrNegativeProfit  = errors.New("fincalc: investor net profit is negative")
	ErrNotReconciled   = errors.New("fincalc: term split does not reconcile with original total")
)

// Round2 rounds to 2 decimal places, half up. Applied at the final step of every
// calculation only; intermediate terms stay exact.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// NormalizeRate accepts a monthly rate either as a fraction (0.03) or as a
// whole-number percentage (3) and returns the fraction form.
func NormalizeRate(rate float64) (float64, error) {
	if rate < 0 {
		return 0, ErrInvalidRate
	}
	if rate > 1 {
		return decimal.NewFromFloat(rate).Div(decimal.NewFromInt(100)).InexactFloat64(), nil
	}
	return rate, nil
}

// accrue computes principal × rate × days / 30, rounding only the result.
func accrue(principal, monthlyRate float64, days int) (float64, error) {
	if principal < 0 {
		return 0, ErrNegativeAmount
	}
	if monthlyRate < 0 {
		return 0, ErrInvalidRate
	}
	if days <= 0 {
		return 0, ErrInvalidDuration
	}
	out := decimal.NewFromFloat(principal).
		Mul(decimal.NewFromFloat(monthlyRate)).
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(daysPerMonth))
	return out.Round(2).InexactFloat64(), nil
}

// Interest is the lender's accrual over a number of days at a monthly rate.
func Interest(principal, monthlyRate float64, days int) (float64, error) {
	return accrue(principal, monthlyRate, days)
}

// Fee is the platform's accrual; same formula as Interest with the fee rate.
func Fee(principal, feeRate float64, days int) (float64, error) {
	return accrue(principal, feeRate, days)
}

// SplitRate splits a contract's total monthly rate into the lender component
// and the platform fee component.
func SplitRate(totalMonthlyRate float64) (lenderRate, feeRate float64, err error) {
	norm, err := NormalizeRate(totalMonthlyRate)
	if err != nil {
		return 0, 0, err
	}
	if norm < PlatformFeeRate {
		return 0, 0, ErrRateBelowFee
	}
	lender := decimal.NewFromFloat(norm).
		Sub(decimal.NewFromFloat(PlatformFeeRate)).
		InexactFloat64()
	return lender, PlatformFeeRate, nil
}

// Proration is the result of splitting a running contract's term at the moment
// of a principal increase.
//
// InterestToDate/FeeToDate accrue on the pre-increase principal and must be
// settled in cash before the increase applies. InterestRemaining/FeeRemaining
// accrue on the increased principal over the remaining days and are folded
// into the renewal contract instead of collected.
//
// OriginalTotalInterest and TotalAfterAction both price the full term at the
// pre-increase principal (whole versus split into elapsed+remaining), so they
// must agree within rounding tolerance, proving the split itself neither
// creates nor destroys value.
type Proration struct {
	InterestToDate        float64
	FeeToDate             float64
	NewPrincipal          float64
	RemainingDays         int
	InterestRemaining     float64
	FeeRemaining          float64
	OriginalTotalInterest float64
	TotalAfterAction      float64
}

// IncreaseProration computes the term split for a principal increase.
// elapsedDays must fall strictly inside the term: an increase at day zero or
// past the end is an input error, not a clamp.
func IncreaseProration(principal, totalMonthlyRate float64, termDays, elapsedDays int, increase float64) (*Proration, error) {
	if principal < 0 || increase < 0 {
		return nil, ErrNegativeAmount
	}
	if termDays <= 0 || elapsedDays <= 0 || elapsedDays >= termDays {
		return nil, ErrInvalidDuration
	}
	lenderRate, feeRate, err := SplitRate(totalMonthlyRate)
	if err != nil {
		return nil, err
	}

	remaining := termDays - elapsedDays
	newPrincipal := decimal.NewFromFloat(principal).
		Add(decimal.NewFromFloat(increase)).
		InexactFloat64()

	interestToDate, err := Interest(principal, lenderRate, elapsedDays)
	if err != nil {
		return nil, err
	}
	feeToDate, err := Fee(principal, feeRate, elapsedDays)
	if err != nil {
		return nil, err
	}
	interestRemaining, err := Interest(newPrincipal, lenderRate, remaining)
	if err != nil {
		return nil, err
	}
	feeRemaining, err := Fee(newPrincipal, feeRate, remaining)
	if err != nil {
		return nil, err
	}

	// Reconciliation legs at the pre-increase principal.
	origInterest, err := Interest(principal, lenderRate, termDays)
	if err != nil {
		return nil, err
	}
	origFee, err := Fee(principal, feeRate, termDays)
	if err != nil {
		return nil, err
	}
	splitInterest, err := Interest(principal, lenderRate, remaining)
	if err != nil {
		return nil, err
	}
	splitFee, err := Fee(principal, feeRate, remaining)
	if err != nil {
		return nil, err
	}
	if !withinLegTolerance(origInterest, interestToDate+splitInterest) ||
		!withinLegTolerance(origFee, feeToDate+splitFee) {
		return nil, ErrNotReconciled
	}

	return &Proration{
		InterestToDate:        interestToDate,
		FeeToDate:             feeToDate,
		NewPrincipal:          newPrincipal,
		RemainingDays:         remaining,
		InterestRemaining:     interestRemaining,
		FeeRemaining:          feeRemaining,
		OriginalTotalInterest: Round2(origInterest + origFee),
		TotalAfterAction:      Round2(interestToDate + feeToDate + splitInterest + splitFee),
	}, nil
}

// withinLegTolerance allows one extra rounding step per leg: ±0.01.
func withinLegTolerance(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 0.01+1e-9
}

// Terms is the priced shape of a new (or renewed) contract.
type Terms struct {
	PrincipalAmount   float64
	InterestAmount    float64
	PlatformFeeAmount float64
	TotalAmount       float64
}

// ContractTerms prices a contract: lender interest and platform fee over the
// full duration, and the total the pawner owes at maturity.
func ContractTerms(principal, totalMonthlyRate float64, durationDays int) (*Terms, error) {
	if principal < 0 {
		return nil, ErrNegativeAmount
	}
	lenderRate, feeRate, err := SplitRate(totalMonthlyRate)
	if err != nil {
		return nil, err
	}
	interest, err := Interest(principal, lenderRate, durationDays)
	if err != nil {
		return nil, err
	}
	fee, err := Fee(principal, feeRate, durationDays)
	if err != nil {
		return nil, err
	}
	total := decimal.NewFromFloat(principal).
		Add(decimal.NewFromFloat(interest)).
		Add(decimal.NewFromFloat(fee)).
		Round(2).InexactFloat64()
	return &Terms{
		PrincipalAmount:   principal,
		InterestAmount:    interest,
		PlatformFeeAmount: fee,
		TotalAmount:       total,
	}, nil
}

// Settlement is what a full payoff distributes.
type Settlement struct {
	InterestAmount    float64 // interest earned at the full contract rate
	PlatformFeeAmount float64 // platform's deduction
	InvestorNetProfit float64
}

// RedemptionSettlement computes the payoff split for days of accrual. A
// negative net profit is an input error, never silently clamped.
func RedemptionSettlement(principal, totalMonthlyRate float64, days int) (*Settlement, error) {
	norm, err := NormalizeRate(totalMonthlyRate)
	if err != nil {
		return nil, err
	}
	interest, err := accrue(principal, norm, days)
	if err != nil {
		return nil, err
	}
	fee, err := Fee(principal, PlatformFeeRate, days)
	if err != nil {
		return nil, err
	}
	net := Round2(interest - fee)
	if net < 0 {
		return nil, ErrNegativeProfit
	}
	return &Settlement{
		InterestAmount:    interest,
		PlatformFeeAmount: fee,
		InvestorNetProfit: net,
	}, nil
}
