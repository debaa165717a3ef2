package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the row shape of the payments table. Rows are append-only.
type Payment struct {
	PaymentID               string          `db:"payment_id"`
	LoanID                  string          `db:"loan_id"`
	Amount                  decimal.Decimal `db:"amount"`
	InterestPortion         decimal.Decimal `db:"interest_portion"`
	PrincipalPortion        decimal.Decimal `db:"principal_portion"`
	OutstandingBalanceAfter decimal.Decimal `db:"outstanding_balance_after"`
	Note                    string          `db:"note"`
	CreatedAt               time.Time       `db:"created_at"`
	CreatedBy               string          `db:"created_by"`
}
