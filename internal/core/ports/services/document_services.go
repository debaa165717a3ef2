package services

import (
	"context"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	"github.com/SscSPs/p2p_loan_tracker/internal/dto"
)

// DocumentSagaSvc creates and deletes loans together with their stored documents.
type DocumentSagaSvc interface {
	// CreateWithDocuments persists a loan and uploads its files as one unit.
	// On failure no loan row and no uploaded blob remain, except when the
	// compensating delete itself fails.
	CreateWithDocuments(ctx context.Context, ownerID string, req dto.CreateLoanRequest, files []domain.UploadFile) (*domain.Loan, error)

	// DeleteLoan removes every blob under the loan's prefix, then the bundle,
	// payments and loan rows. Safe to retry after a failure.
	DeleteLoan(ctx context.Context, ownerID, loanID string) error
}
