package repositories

import (
	"context"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
)

// PaymentReader defines read operations for payment records
type PaymentReader interface {
	// ListPaymentsByLoan returns payments of a loan ordered by (created_at, payment_id),
	// starting after nextToken when given. The returned token is nil on the last page.
	ListPaymentsByLoan(ctx context.Context, loanID string, limit int, nextToken *string) ([]domain.Payment, *string, error)
}

// PaymentWriter defines write operations for payment records
type PaymentWriter interface {
	// SavePayment appends a payment record.
	SavePayment(ctx context.Context, payment domain.Payment) error

	// DeletePaymentsByLoan removes all payment records of a loan and returns how many were removed.
	DeletePaymentsByLoan(ctx context.Context, loanID string) (int64, error)
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
