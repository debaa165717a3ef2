package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanRole describes which side of the loan the owner is on.
type LoanRole string

const (
	Lender   LoanRole = "LENDER"
	Borrower LoanRole = "BORROWER"
)

// IsValid reports whether r is a known role.
func (r LoanRole) IsValid() bool {
	return r == Lender || r == Borrower
}

// Loan is a single peer-to-peer loan account.
// PrincipalRemaining and AccruedInterest are never negative; they are changed
// only by payment allocation and interest accrual.
type Loan struct {
	LoanID             string          `json:"loanID"` // Primary Key (UUID)
	OwnerID            string          `json:"ownerID"`
	Role               LoanRole        `json:"role"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Counterparty       string          `json:"counterparty"`
	TermCount          int             `json:"termCount"`
	TermPayment        decimal.Decimal `json:"termPayment"`
	PrincipalInitial   decimal.Decimal `json:"principalInitial"` // Immutable after creation
	PrincipalRemaining decimal.Decimal `json:"principalRemaining"`
	AccruedInterest    decimal.Decimal `json:"accruedInterest"`
	InterestRateAnnual decimal.Decimal `json:"interestRateAnnual"` // Fraction, 0.12 == 12%
	LastAccrualAt      *time.Time      `json:"lastAccrualAt,omitempty"`
	Version            int64           `json:"version"` // Optimistic concurrency counter
	AuditFields
}

// Outstanding returns accrued interest plus remaining principal.
func (l Loan) Outstanding() decimal.Decimal {
	return l.AccruedInterest.Add(l.PrincipalRemaining)
}

// IsOpen reports whether the loan still has principal to accrue interest on.
func (l Loan) IsOpen() bool {
	return l.PrincipalRemaining.IsPositive()
}

// OwnedBy reports whether the loan belongs to userID.
func (l Loan) OwnedBy(userID string) bool {
	return l.OwnerID == userID
}
