package services

import (
	"context"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
)

// AccrualSchedulerSvc advances accrued interest on every open loan on a schedule.
type AccrualSchedulerSvc interface {
	// Start registers the recurring job and starts the scheduler.
	Start() error

	// Stop stops scheduling and waits for a running job until ctx is done.
	Stop(ctx context.Context) error

	// RunOnce performs a single accrual pass over all open loans.
	RunOnce(ctx context.Context) domain.AccrualReport
}
