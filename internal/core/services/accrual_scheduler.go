package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/services"
	"github.com/SscSPs/p2p_loan_tracker/internal/middleware"
	"github.com/SscSPs/p2p_loan_tracker/internal/utils/accounting"
	"github.com/robfig/cron/v3"
)

// AccrualActor is recorded as LastUpdatedBy on loans touched by the scheduler.
const AccrualActor = "system:accrual"

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]any{slog.String("error", err.Error())}, keysAndValues...)...)
}

// accrualScheduler implements portssvc.AccrualSchedulerSvc
type accrualScheduler struct {
	BaseService
	txManager portsrepo.TransactionManager
	loanRepo  portsrepo.LoanRepositoryFacade
	spec      string
	location  *time.Location
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

// AccrualOption configures the accrual scheduler.
type AccrualOption func(*accrualScheduler)

// WithAccrualClock overrides time.Now, for tests.
func WithAccrualClock(now func() time.Time) AccrualOption {
	return func(s *accrualScheduler) { s.now = now }
}

// WithAccrualLogger sets the logger used by scheduled runs.
func WithAccrualLogger(logger *slog.Logger) AccrualOption {
	return func(s *accrualScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewAccrualScheduler validates spec (standard five-field cron) and returns a
// stopped scheduler.
func NewAccrualScheduler(txManager portsrepo.TransactionManager, loanRepo portsrepo.LoanRepositoryFacade, spec string, location *time.Location, options ...AccrualOption) (portssvc.AccrualSchedulerSvc, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid accrual cron spec %q: %w", spec, err)
	}
	if location == nil {
		location = time.UTC
	}
	s := &accrualScheduler{
		txManager: txManager,
		loanRepo:  loanRepo,
		spec:      spec,
		location:  location,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, option := range options {
		option(s)
	}

	cl := cronLogger{logger: s.logger.With(slog.String("component", "accrual_scheduler"))}
	s.cron = cron.New(
		cron.WithLocation(location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	// The job is registered once; Start and Stop only toggle the cron loop.
	if _, err := s.cron.AddFunc(spec, s.runScheduled); err != nil {
		return nil, fmt.Errorf("failed to schedule accrual job: %w", err)
	}
	return s, nil
}

var _ portssvc.AccrualSchedulerSvc = (*accrualScheduler)(nil)

func (s *accrualScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("Accrual scheduler started", slog.String("spec", s.spec), slog.String("timezone", s.location.String()))
	return nil
}

// Stop waits for a running accrual pass unless ctx ends first.
func (s *accrualScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	done := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-done.Done():
		s.logger.Info("Accrual scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("accrual scheduler did not stop in time: %w", ctx.Err())
	}
}

func (s *accrualScheduler) runScheduled() {
	runID := fmt.Sprintf("accrual-%d", s.now().Unix())
	ctx := middleware.WithLogger(context.Background(), s.logger.With(slog.String("run_id", runID)))
	s.RunOnce(ctx)
}

func (s *accrualScheduler) RunOnce(ctx context.Context) domain.AccrualReport {
	report := domain.AccrualReport{StartedAt: s.now().UTC()}

	ids, err := s.loanRepo.ListAccruableLoanIDs(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list loans for accrual")
		report.Failures = append(report.Failures, domain.AccrualFailure{Err: err})
		report.FinishedAt = s.now().UTC()
		return report
	}
	report.Candidates = len(ids)

	for i, id := range ids {
		if ctx.Err() != nil {
			for _, rest := range ids[i:] {
				report.Failures = append(report.Failures, domain.AccrualFailure{
					LoanID: rest,
					Err:    fmt.Errorf("%w: loan %s: %w", apperrors.ErrPartialAccrual, rest, ctx.Err()),
				})
			}
			s.LogError(ctx, ctx.Err(), "Accrual run interrupted", slog.Int("remaining", len(ids)-i))
			break
		}

		accrued, err := s.accrueOne(ctx, id, report.StartedAt)
		if err != nil {
			s.LogError(ctx, err, "Failed to accrue interest", slog.String("loan_id", id))
			report.Failures = append(report.Failures, domain.AccrualFailure{
				LoanID: id,
				Err:    fmt.Errorf("%w: loan %s: %w", apperrors.ErrPartialAccrual, id, err),
			})
			continue
		}
		if accrued {
			report.Accrued++
		}
	}

	report.FinishedAt = s.now().UTC()
	s.LogInfo(ctx, "Accrual run finished",
		slog.Int("candidates", report.Candidates),
		slog.Int("accrued", report.Accrued),
		slog.Int("failed", len(report.Failures)),
		slog.Duration("took", report.FinishedAt.Sub(report.StartedAt)))
	return report
}

// accrueOne adds one day of interest to a loan in its own transaction. A loan
// paid off since it was listed is skipped.
func (s *accrualScheduler) accrueOne(ctx context.Context, loanID string, at time.Time) (bool, error) {
	accrued := false
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		loan, err := s.loanRepo.FindLoanByIDForUpdate(txCtx, loanID)
		if err != nil {
			return err
		}
		if !loan.IsOpen() {
			return nil
		}

		daily := accounting.DailyInterest(loan.PrincipalRemaining.Add(loan.AccruedInterest), loan.InterestRateAnnual)
		loan.AccruedInterest = loan.AccruedInterest.Add(daily)
		loan.LastAccrualAt = &at
		loan.LastUpdatedAt = at
		loan.LastUpdatedBy = AccrualActor

		if _, err := s.loanRepo.UpdateLoanBalances(txCtx, *loan); err != nil {
			return err
		}
		accrued = true
		return nil
	})
	return accrued, err
}
