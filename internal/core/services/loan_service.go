package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/services"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/ports/storage"
	"github.com/SscSPs/p2p_loan_tracker/internal/dto"
)

const defaultSignedURLTTL = time.Hour

// loanService implements portssvc.LoanSvcFacade
type loanService struct {
	BaseService
	loanRepo     portsrepo.LoanReader
	paymentRepo  portsrepo.PaymentReader
	documentRepo portsrepo.DocumentBundleRepositoryFacade
	blobs        storage.BlobReader
	signedURLTTL time.Duration
	now          func() time.Time
}

// NewLoanService creates the read side of the loan API.
func NewLoanService(repos portsrepo.RepositoryProvider, blobs storage.BlobReader, signedURLTTL time.Duration) portssvc.LoanSvcFacade {
	if signedURLTTL <= 0 {
		signedURLTTL = defaultSignedURLTTL
	}
	return &loanService{
		loanRepo:     repos.LoanRepo,
		paymentRepo:  repos.PaymentRepo,
		documentRepo: repos.DocumentRepo,
		blobs:        blobs,
		signedURLTTL: signedURLTTL,
		now:          time.Now,
	}
}

var _ portssvc.LoanSvcFacade = (*loanService)(nil)

func (s *loanService) GetLoan(ctx context.Context, ownerID, loanID string) (*domain.Loan, error) {
	loan, err := findOwnedLoan(ctx, s.loanRepo.FindLoanByID, ownerID, loanID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get loan", slog.String("loan_id", loanID))
		}
		return nil, err
	}
	return loan, nil
}

func (s *loanService) ListLoans(ctx context.Context, ownerID string, params dto.ListLoansParams) ([]domain.Loan, error) {
	loans, err := s.loanRepo.ListLoansByOwner(ctx, ownerID, params.Limit, params.Offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list loans", slog.String("owner_id", ownerID))
		return nil, err
	}
	return loans, nil
}

func (s *loanService) ListPayments(ctx context.Context, ownerID, loanID string, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error) {
	if _, err := s.GetLoan(ctx, ownerID, loanID); err != nil {
		return nil, err
	}

	payments, next, err := s.paymentRepo.ListPaymentsByLoan(ctx, loanID, params.Limit, params.NextToken)
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to list payments", slog.String("loan_id", loanID))
		}
		return nil, err
	}
	return &dto.ListPaymentsResponse{
		Payments:  dto.ToPaymentResponses(payments),
		NextToken: next,
	}, nil
}

// ListDocumentLinks signs a read URL for every document of the loan.
func (s *loanService) ListDocumentLinks(ctx context.Context, ownerID, loanID string) ([]domain.DocumentLink, error) {
	if _, err := s.GetLoan(ctx, ownerID, loanID); err != nil {
		return nil, err
	}

	bundle, err := s.documentRepo.FindDocumentBundleByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return []domain.DocumentLink{}, nil
		}
		return nil, err
	}

	links := []domain.DocumentLink{}
	expiresAt := s.now().UTC().Add(s.signedURLTTL)
	token := ""
	for {
		page, err := s.blobs.ListByPrefix(ctx, bundle.BlobPrefix, token, 0)
		if err != nil {
			s.LogError(ctx, err, "Failed to list loan documents", slog.String("loan_id", loanID))
			return nil, err
		}
		for _, key := range page.Keys {
			url, err := s.blobs.SignedReadURL(ctx, key, s.signedURLTTL)
			if err != nil {
				s.LogError(ctx, err, "Failed to sign document URL", slog.String("key", key))
				return nil, err
			}
			links = append(links, domain.DocumentLink{
				Key:       key,
				Name:      documentName(bundle.BlobPrefix, key),
				URL:       url,
				ExpiresAt: expiresAt,
			})
		}
		if !page.Truncated || page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	return links, nil
}
