package services

import (
	"fmt"
	"log/slog"
	"time"

	portsrepo "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/services"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/ports/storage"
	"github.com/SscSPs/p2p_loan_tracker/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, blobs storage.BlobStore, logger *slog.Logger) (*portssvc.ServiceContainer, error) {
	container := &portssvc.ServiceContainer{}

	container.User = NewUserService(repos.UserRepo)
	container.Token = NewTokenService(cfg)
	container.Loan = NewLoanService(repos, blobs, cfg.SignedURLTTL)
	container.Payment = NewPaymentAllocator(repos.TxManager, repos.LoanRepo, repos.PaymentRepo)
	container.Documents = NewDocumentSaga(repos, blobs,
		WithUploadLimits(cfg.MaxUploadFiles, cfg.MaxUploadBytes),
		WithCompensationTimeout(cfg.BlobOpTimeout),
	)

	location, err := time.LoadLocation(cfg.AccrualTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid accrual timezone %q: %w", cfg.AccrualTimezone, err)
	}
	container.Accrual, err = NewAccrualScheduler(repos.TxManager, repos.LoanRepo, cfg.AccrualCronSpec, location,
		WithAccrualLogger(logger))
	if err != nil {
		return nil, err
	}

	return container, nil
}
