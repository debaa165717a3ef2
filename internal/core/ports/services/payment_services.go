package services

import (
	"context"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentAllocatorSvc applies payments to loans interest-first.
type PaymentAllocatorSvc interface {
	// Apply splits amount between the loan's accrued interest and principal,
	// records the payment and returns the updated loan. Overpayments are
	// rejected with apperrors.ErrOverpayment and change nothing.
	Apply(ctx context.Context, ownerID, loanID string, amount decimal.Decimal, note string) (*domain.Loan, *domain.Payment, error)
}
