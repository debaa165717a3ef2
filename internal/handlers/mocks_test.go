package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/services"
	"github.com/SscSPs/p2p_loan_tracker/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock UserService ---
type MockUserService struct {
	mock.Mock
}

var _ portssvc.UserSvcFacade = (*MockUserService)(nil)

func (m *MockUserService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserService) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Mock TokenService ---
type MockTokenService struct {
	mock.Mock
}

var _ portssvc.TokenSvcFacade = (*MockTokenService)(nil)

func (m *MockTokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// --- Mock LoanService ---
type MockLoanService struct {
	mock.Mock
}

var _ portssvc.LoanSvcFacade = (*MockLoanService)(nil)

func (m *MockLoanService) GetLoan(ctx context.Context, ownerID, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, ownerID, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, ownerID string, params dto.ListLoansParams) ([]domain.Loan, error) {
	args := m.Called(ctx, ownerID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}

func (m *MockLoanService) ListPayments(ctx context.Context, ownerID, loanID string, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error) {
	args := m.Called(ctx, ownerID, loanID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListPaymentsResponse), args.Error(1)
}

func (m *MockLoanService) ListDocumentLinks(ctx context.Context, ownerID, loanID string) ([]domain.DocumentLink, error) {
	args := m.Called(ctx, ownerID, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentLink), args.Error(1)
}

// --- Mock DocumentSaga ---
type MockDocumentSaga struct {
	mock.Mock
}

var _ portssvc.DocumentSagaSvc = (*MockDocumentSaga)(nil)

func (m *MockDocumentSaga) CreateWithDocuments(ctx context.Context, ownerID string, req dto.CreateLoanRequest, files []domain.UploadFile) (*domain.Loan, error) {
	args := m.Called(ctx, ownerID, req, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockDocumentSaga) DeleteLoan(ctx context.Context, ownerID, loanID string) error {
	args := m.Called(ctx, ownerID, loanID)
	return args.Error(0)
}

// --- Mock PaymentAllocator ---
type MockPaymentAllocator struct {
	mock.Mock
}

var _ portssvc.PaymentAllocatorSvc = (*MockPaymentAllocator)(nil)

func (m *MockPaymentAllocator) Apply(ctx context.Context, ownerID, loanID string, amount decimal.Decimal, note string) (*domain.Loan, *domain.Payment, error) {
	args := m.Called(ctx, ownerID, loanID, amount, note)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Loan), args.Get(1).(*domain.Payment), args.Error(2)
}
