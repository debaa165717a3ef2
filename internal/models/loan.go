package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Loan is the row shape of the loans table.
type Loan struct {
	LoanID             string          `db:"loan_id"`
	OwnerID            string          `db:"owner_id"`
	Role               string          `db:"role"`
	Title              string          `db:"title"`
	Description        string          `db:"description"`
	Counterparty       string          `db:"counterparty"`
	TermCount          int             `db:"term_count"`
	TermPayment        decimal.Decimal `db:"term_payment"`
	PrincipalInitial   decimal.Decimal `db:"principal_initial"`
	PrincipalRemaining decimal.Decimal `db:"principal_remaining"`
	AccruedInterest    decimal.Decimal `db:"accrued_interest"`
	InterestRateAnnual decimal.Decimal `db:"interest_rate_annual"`
	LastAccrualAt      sql.NullTime    `db:"last_accrual_at"`
	Version            int64           `db:"version"`
	AuditFields
}
