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
	"github.com/SscSPs/p2p_loan_tracker/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultMaxConflictRetries = 3

// paymentAllocator implements portssvc.PaymentAllocatorSvc
type paymentAllocator struct {
	BaseService
	txManager   portsrepo.TransactionManager
	loanRepo    portsrepo.LoanRepositoryFacade
	paymentRepo portsrepo.PaymentWriter
	maxRetries  int
	now         func() time.Time
}

// PaymentAllocatorOption configures the payment allocator.
type PaymentAllocatorOption func(*paymentAllocator)

// WithMaxConflictRetries sets how often a lost version race is retried.
func WithMaxConflictRetries(n int) PaymentAllocatorOption {
	return func(s *paymentAllocator) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithPaymentClock overrides time.Now, for tests.
func WithPaymentClock(now func() time.Time) PaymentAllocatorOption {
	return func(s *paymentAllocator) { s.now = now }
}

// NewPaymentAllocator creates a new payment allocator.
func NewPaymentAllocator(txManager portsrepo.TransactionManager, loanRepo portsrepo.LoanRepositoryFacade, paymentRepo portsrepo.PaymentWriter, options ...PaymentAllocatorOption) portssvc.PaymentAllocatorSvc {
	svc := &paymentAllocator{
		txManager:   txManager,
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		maxRetries:  defaultMaxConflictRetries,
		now:         time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.PaymentAllocatorSvc = (*paymentAllocator)(nil)

func (s *paymentAllocator) Apply(ctx context.Context, ownerID, loanID string, amount decimal.Decimal, note string) (*domain.Loan, *domain.Payment, error) {
	if err := accounting.ValidateAmount("payment amount", amount); err != nil {
		return nil, nil, err
	}

	for attempt := 0; ; attempt++ {
		loan, payment, err := s.applyOnce(ctx, ownerID, loanID, amount, note)
		if err == nil {
			s.LogInfo(ctx, "Payment applied",
				slog.String("loan_id", loanID),
				slog.String("payment_id", payment.PaymentID),
				slog.String("amount", amount.String()),
				slog.String("interest_portion", payment.InterestPortion.String()),
				slog.String("principal_portion", payment.PrincipalPortion.String()))
			return loan, payment, nil
		}
		if errors.Is(err, apperrors.ErrConflict) && attempt < s.maxRetries {
			s.LogDebug(ctx, "Retrying payment after version conflict",
				slog.String("loan_id", loanID),
				slog.Int("attempt", attempt+1))
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrOverpayment) {
			s.LogError(ctx, err, "Failed to apply payment", slog.String("loan_id", loanID))
		}
		return nil, nil, err
	}
}

func (s *paymentAllocator) applyOnce(ctx context.Context, ownerID, loanID string, amount decimal.Decimal, note string) (*domain.Loan, *domain.Payment, error) {
	var (
		updated *domain.Loan
		payment *domain.Payment
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		loan, err := findOwnedLoan(txCtx, s.loanRepo.FindLoanByIDForUpdate, ownerID, loanID)
		if err != nil {
			return err
		}

		alloc, err := accounting.AllocatePayment(loan.AccruedInterest, loan.PrincipalRemaining, amount)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		loan.AccruedInterest = alloc.NewAccruedInterest
		loan.PrincipalRemaining = alloc.NewPrincipalRemaining
		loan.LastUpdatedAt = now
		loan.LastUpdatedBy = ownerID

		version, err := s.loanRepo.UpdateLoanBalances(txCtx, *loan)
		if err != nil {
			return err
		}
		loan.Version = version

		p := domain.Payment{
			PaymentID:               uuid.NewString(),
			LoanID:                  loan.LoanID,
			Amount:                  amount,
			InterestPortion:         alloc.InterestPortion,
			PrincipalPortion:        alloc.PrincipalPortion,
			OutstandingBalanceAfter: loan.PrincipalRemaining,
			Note:                    note,
			CreatedAt:               now,
			CreatedBy:               ownerID,
		}
		if err := s.paymentRepo.SavePayment(txCtx, p); err != nil {
			return err
		}

		updated = loan
		payment = &p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, payment, nil
}
