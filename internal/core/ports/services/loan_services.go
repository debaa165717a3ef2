package services

import (
	"context"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	"github.com/SscSPs/p2p_loan_tracker/internal/dto"
)

// LoanReaderSvc defines owner-scoped read operations on loans.
type LoanReaderSvc interface {
	// GetLoan returns the loan if it exists and belongs to ownerID, else apperrors.ErrNotFound.
	GetLoan(ctx context.Context, ownerID, loanID string) (*domain.Loan, error)

	// ListLoans returns a page of the owner's loans, newest first.
	ListLoans(ctx context.Context, ownerID string, params dto.ListLoansParams) ([]domain.Loan, error)
}

// PaymentHistorySvc defines read access to a loan's payment ledger.
type PaymentHistorySvc interface {
	ListPayments(ctx context.Context, ownerID, loanID string, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error)
}

// DocumentLinkSvc issues time-limited read links for a loan's documents.
type DocumentLinkSvc interface {
	ListDocumentLinks(ctx context.Context, ownerID, loanID string) ([]domain.DocumentLink, error)
}

// LoanSvcFacade combines all loan read services.
type LoanSvcFacade interface {
	LoanReaderSvc
	PaymentHistorySvc
	DocumentLinkSvc
}
