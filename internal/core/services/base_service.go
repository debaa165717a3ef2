package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	"github.com/SscSPs/p2p_loan_tracker/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.ErrorContext(ctx, msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).InfoContext(ctx, msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).DebugContext(ctx, msg, keyvals...)
}

// findOwnedLoan loads a loan and hides loans of other owners behind ErrNotFound.
func findOwnedLoan(ctx context.Context, find func(context.Context, string) (*domain.Loan, error), ownerID, loanID string) (*domain.Loan, error) {
	loan, err := find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.OwnedBy(ownerID) {
		return nil, apperrors.NewNotFoundError("loan not found")
	}
	return loan, nil
}

