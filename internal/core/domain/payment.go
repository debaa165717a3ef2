package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is an immutable record of one payment applied to a loan.
// InterestPortion + PrincipalPortion always equals Amount.
type Payment struct {
	PaymentID               string          `json:"paymentID"`
	LoanID                  string          `json:"loanID"`
	Amount                  decimal.Decimal `json:"amount"`
	InterestPortion         decimal.Decimal `json:"interestPortion"`
	PrincipalPortion        decimal.Decimal `json:"principalPortion"`
	OutstandingBalanceAfter decimal.Decimal `json:"outstandingBalanceAfter"` // PrincipalRemaining after this payment
	Note                    string          `json:"note"`
	CreatedAt               time.Time       `json:"createdAt"`
	CreatedBy               string          `json:"createdBy"`
}
