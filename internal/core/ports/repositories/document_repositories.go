package repositories

import (
	"context"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
)

// DocumentBundleRepositoryFacade defines persistence for a loan's document bundle.
type DocumentBundleRepositoryFacade interface {
	SaveDocumentBundle(ctx context.Context, bundle domain.DocumentBundle) error

	// FindDocumentBundleByLoanID returns apperrors.ErrNotFound when the loan has no bundle.
	FindDocumentBundleByLoanID(ctx context.Context, loanID string) (*domain.DocumentBundle, error)

	DeleteDocumentBundle(ctx context.Context, loanID string) error
}
