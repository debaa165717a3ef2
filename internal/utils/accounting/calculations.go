package accounting

import (
	"fmt"

	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/shopspring/decimal"
)

// InterestScale is the number of fractional digits kept on accrued interest.
const InterestScale int32 = 10

// RateScale is the number of fractional digits stored for an annual rate.
const RateScale int32 = 6

var daysPerYear = decimal.NewFromInt(365)

// Allocation is the result of splitting one payment between interest and principal.
type Allocation struct {
	InterestPortion       decimal.Decimal
	PrincipalPortion      decimal.Decimal
	NewAccruedInterest    decimal.Decimal
	NewPrincipalRemaining decimal.Decimal
}

// AllocatePayment splits amount interest-first across the accrued interest and
// remaining principal of a loan. It never produces negative balances and
// rejects amounts larger than accrued + principal.
func AllocatePayment(accrued, principal, amount decimal.Decimal) (Allocation, error) {
	if err := ValidateAmount("payment amount", amount); err != nil {
		return Allocation{}, err
	}
	if accrued.IsNegative() || principal.IsNegative() {
		return Allocation{}, fmt.Errorf("loan balances must not be negative (accrued %s, principal %s)", accrued.String(), principal.String())
	}

	outstanding := accrued.Add(principal)
	if amount.GreaterThan(outstanding) {
		return Allocation{}, apperrors.NewOverpaymentError(
			fmt.Sprintf("payment of %s exceeds outstanding balance of %s", amount.String(), outstanding.String()))
	}

	interestPortion := decimal.Min(accrued, amount)
	remainder := amount.Sub(interestPortion)
	principalPortion := decimal.Min(principal, remainder)

	return Allocation{
		InterestPortion:       interestPortion,
		PrincipalPortion:      principalPortion,
		NewAccruedInterest:    accrued.Sub(interestPortion),
		NewPrincipalRemaining: principal.Sub(principalPortion),
	}, nil
}

// DailyInterest returns one day of simple interest on balance at annualRate
// (a fraction), rounded to InterestScale digits.
func DailyInterest(balance, annualRate decimal.Decimal) decimal.Decimal {
	return balance.Mul(annualRate).DivRound(daysPerYear, InterestScale)
}

// ValidateAnnualRate checks that rate is a fraction in [0, 1].
func ValidateAnnualRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: interest rate must be a fraction between 0 and 1, got %s", apperrors.ErrValidation, rate.String())
	}
	if !rate.Equal(rate.Round(RateScale)) {
		return fmt.Errorf("%w: interest rate has more than %d fractional digits", apperrors.ErrValidation, RateScale)
	}
	return nil
}

// ValidateAmount checks that amount is positive and fits the stored scale.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", apperrors.ErrValidation, field, amount.String())
	}
	if !amount.Equal(amount.Round(InterestScale)) {
		return fmt.Errorf("%w: %s has more than %d fractional digits", apperrors.ErrValidation, field, InterestScale)
	}
	return nil
}
