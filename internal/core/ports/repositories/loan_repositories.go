package repositories

import (
	"context"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
)

// LoanReader defines read operations for loan data
type LoanReader interface {
	// FindLoanByID retrieves a loan by its ID.
	FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// FindLoanByIDForUpdate retrieves a loan and locks its row until the
	// surrounding transaction ends. Must be called inside WithTransaction.
	FindLoanByIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error)

	// ListLoansByOwner retrieves a paginated list of loans owned by a user.
	ListLoansByOwner(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Loan, error)

	// ListAccruableLoanIDs returns the IDs of every loan with remaining principal.
	ListAccruableLoanIDs(ctx context.Context) ([]string, error)
}

// LoanWriter defines write operations for loan data
type LoanWriter interface {
	// SaveLoan inserts a new loan.
	SaveLoan(ctx context.Context, loan domain.Loan) error

	// UpdateLoanBalances writes the balance fields of loan if the stored version
	// still equals loan.Version and returns the new version. A stale version
	// yields apperrors.ErrConflict.
	UpdateLoanBalances(ctx context.Context, loan domain.Loan) (int64, error)

	// DeleteLoan removes a loan row.
	DeleteLoan(ctx context.Context, loanID string) error
}

// LoanRepositoryFacade combines all loan-related repository interfaces
type LoanRepositoryFacade interface {
	LoanReader
	LoanWriter
}
