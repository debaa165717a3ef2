package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/services"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/ports/storage"
	"github.com/SscSPs/p2p_loan_tracker/internal/dto"
	"github.com/SscSPs/p2p_loan_tracker/internal/utils"
	"github.com/SscSPs/p2p_loan_tracker/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultMaxUploadFiles      = 3
	defaultMaxUploadBytes      = 10 << 20
	defaultCompensationTimeout = 30 * time.Second
	defaultContentType         = "application/octet-stream"
)

// BlobPrefix is the key prefix under which a loan's documents are stored.
func BlobPrefix(ownerID, loanID string) string {
	return ownerID + "/" + loanID + "/"
}

func documentKey(prefix string, index int, fileName string) string {
	return fmt.Sprintf("%s%d-%s", prefix, index, utils.SanitizeFileName(fileName))
}

// documentName recovers the display name from a key built by documentKey.
func documentName(prefix, key string) string {
	name := strings.TrimPrefix(key, prefix)
	if i := strings.IndexByte(name, '-'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// documentSaga implements portssvc.DocumentSagaSvc
type documentSaga struct {
	BaseService
	txManager    portsrepo.TransactionManager
	loanRepo     portsrepo.LoanRepositoryFacade
	paymentRepo  portsrepo.PaymentWriter
	documentRepo portsrepo.DocumentBundleRepositoryFacade
	blobs        storage.BlobStore

	maxFiles            int
	maxFileBytes        int64
	compensationTimeout time.Duration
	now                 func() time.Time
}

// DocumentSagaOption configures the document saga.
type DocumentSagaOption func(*documentSaga)

// WithUploadLimits bounds the number and size of files per loan.
func WithUploadLimits(maxFiles int, maxFileBytes int64) DocumentSagaOption {
	return func(s *documentSaga) {
		if maxFiles >= 0 {
			s.maxFiles = maxFiles
		}
		if maxFileBytes > 0 {
			s.maxFileBytes = maxFileBytes
		}
	}
}

// WithCompensationTimeout bounds the cleanup of uploaded blobs after a failed create.
func WithCompensationTimeout(d time.Duration) DocumentSagaOption {
	return func(s *documentSaga) {
		if d > 0 {
			s.compensationTimeout = d
		}
	}
}

// WithSagaClock overrides time.Now, for tests.
func WithSagaClock(now func() time.Time) DocumentSagaOption {
	return func(s *documentSaga) { s.now = now }
}

// NewDocumentSaga creates a new document saga.
func NewDocumentSaga(repos portsrepo.RepositoryProvider, blobs storage.BlobStore, options ...DocumentSagaOption) portssvc.DocumentSagaSvc {
	svc := &documentSaga{
		txManager:           repos.TxManager,
		loanRepo:            repos.LoanRepo,
		paymentRepo:         repos.PaymentRepo,
		documentRepo:        repos.DocumentRepo,
		blobs:               blobs,
		maxFiles:            defaultMaxUploadFiles,
		maxFileBytes:        defaultMaxUploadBytes,
		compensationTimeout: defaultCompensationTimeout,
		now:                 time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.DocumentSagaSvc = (*documentSaga)(nil)

func (s *documentSaga) validateCreate(req dto.CreateLoanRequest, files []domain.UploadFile) error {
	if !domain.LoanRole(req.Role).IsValid() {
		return apperrors.NewValidationError(fmt.Sprintf("role must be %s or %s", domain.Lender, domain.Borrower))
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title is required")
	}
	if err := accounting.ValidateAmount("initial amount", req.InitialAmount); err != nil {
		return err
	}
	if err := accounting.ValidateAnnualRate(req.InterestRate); err != nil {
		return err
	}
	if req.TermCount < 0 || req.TermPayment.IsNegative() {
		return apperrors.NewValidationError("term count and term payment must not be negative")
	}
	if len(files) > s.maxFiles {
		return apperrors.NewValidationError(fmt.Sprintf("at most %d files may be attached to a loan", s.maxFiles))
	}
	for _, f := range files {
		if int64(len(f.Data)) > s.maxFileBytes {
			return apperrors.NewValidationError(fmt.Sprintf("file %q exceeds the %d byte limit", f.Name, s.maxFileBytes))
		}
	}
	return nil
}

// CreateWithDocuments keeps the loan insert open across the uploads so that
// a failed upload rolls the loan back. Uploaded keys are then deleted.
func (s *documentSaga) CreateWithDocuments(ctx context.Context, ownerID string, req dto.CreateLoanRequest, files []domain.UploadFile) (*domain.Loan, error) {
	if err := s.validateCreate(req, files); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	loanID := uuid.NewString()
	prefix := BlobPrefix(ownerID, loanID)
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: ownerID, LastUpdatedAt: now, LastUpdatedBy: ownerID}

	loan := domain.Loan{
		LoanID:             loanID,
		OwnerID:            ownerID,
		Role:               domain.LoanRole(req.Role),
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		Counterparty:       req.Counterparty,
		TermCount:          req.TermCount,
		TermPayment:        req.TermPayment,
		PrincipalInitial:   req.InitialAmount,
		PrincipalRemaining: req.InitialAmount,
		AccruedInterest:    decimal.Zero,
		InterestRateAnnual: req.InterestRate,
		Version:            1,
		AuditFields:        audit,
	}

	uploaded := make([]string, 0, len(files))
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.loanRepo.SaveLoan(txCtx, loan); err != nil {
			return err
		}

		for i, f := range files {
			key := documentKey(prefix, i, f.Name)
			contentType := f.ContentType
			if contentType == "" {
				contentType = defaultContentType
			}
			// Recorded before Put: a failed Put may still have stored the object.
			uploaded = append(uploaded, key)
			if _, err := s.blobs.Put(txCtx, key, f.Data, contentType); err != nil {
				return fmt.Errorf("upload of file %d (%s): %w", i, f.Name, err)
			}
		}

		bundle := domain.DocumentBundle{
			BundleID:    uuid.NewString(),
			LoanID:      loanID,
			BlobPrefix:  prefix,
			AuditFields: audit,
		}
		return s.documentRepo.SaveDocumentBundle(txCtx, bundle)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create loan with documents",
			slog.String("loan_id", loanID),
			slog.Int("uploaded", len(uploaded)))
		s.compensate(ctx, uploaded)
		return nil, err
	}

	s.LogInfo(ctx, "Loan created",
		slog.String("loan_id", loanID),
		slog.Int("documents", len(uploaded)))
	return &loan, nil
}

// compensate deletes uploaded keys on a context detached from the caller, so
// a canceled request still cleans up. Errors are only logged.
func (s *documentSaga) compensate(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationTimeout)
	defer cancel()

	limit := s.blobs.BatchLimit()
	if limit <= 0 {
		limit = len(keys)
	}
	for start := 0; start < len(keys); start += limit {
		end := min(start+limit, len(keys))
		if err := s.blobs.DeleteBatch(cctx, keys[start:end]); err != nil {
			s.LogError(ctx, err, "Compensation failed, blobs orphaned",
				slog.Any("keys", keys[start:end]))
		}
	}
}

// DeleteLoan removes blobs first. If that fails the rows stay, so the call
// can be repeated.
func (s *documentSaga) DeleteLoan(ctx context.Context, ownerID, loanID string) error {
	if _, err := findOwnedLoan(ctx, s.loanRepo.FindLoanByID, ownerID, loanID); err != nil {
		return err
	}

	bundle, err := s.documentRepo.FindDocumentBundleByLoanID(ctx, loanID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		bundle = nil
	case err != nil:
		return err
	}

	if bundle != nil {
		deleted, err := s.purgePrefix(ctx, bundle.BlobPrefix)
		if err != nil {
			s.LogError(ctx, err, "Failed to delete loan documents",
				slog.String("loan_id", loanID),
				slog.Int("deleted", deleted))
			return err
		}
		s.LogDebug(ctx, "Loan documents deleted", slog.String("loan_id", loanID), slog.Int("deleted", deleted))
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := findOwnedLoan(txCtx, s.loanRepo.FindLoanByIDForUpdate, ownerID, loanID); err != nil {
			return err
		}
		if err := s.documentRepo.DeleteDocumentBundle(txCtx, loanID); err != nil {
			return err
		}
		if _, err := s.paymentRepo.DeletePaymentsByLoan(txCtx, loanID); err != nil {
			return err
		}
		return s.loanRepo.DeleteLoan(txCtx, loanID)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete loan records", slog.String("loan_id", loanID))
		return err
	}

	s.LogInfo(ctx, "Loan deleted", slog.String("loan_id", loanID))
	return nil
}

// purgePrefix always lists the first page, since every pass deletes what it listed.
func (s *documentSaga) purgePrefix(ctx context.Context, prefix string) (int, error) {
	limit := s.blobs.BatchLimit()
	deleted := 0
	for {
		page, err := s.blobs.ListByPrefix(ctx, prefix, "", limit)
		if err != nil {
			return deleted, err
		}
		if len(page.Keys) == 0 {
			if page.Truncated {
				return deleted, apperrors.NewStorageError("listing "+prefix+" made no progress",
					errors.New("truncated page without keys"))
			}
			return deleted, nil
		}
		if err := s.blobs.DeleteBatch(ctx, page.Keys); err != nil {
			return deleted, err
		}
		deleted += len(page.Keys)
		if !page.Truncated {
			return deleted, nil
		}
	}
}
