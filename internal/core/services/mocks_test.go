package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/repositories"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/ports/storage"
	"github.com/stretchr/testify/mock"
)

// --- Mock TransactionManager ---
// Runs fn inline; commit and rollback are not modelled.
type MockTxManager struct {
	mock.Mock
}

var _ portsrepo.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}

// --- Mock LoanRepository ---
type MockLoanRepository struct {
	mock.Mock
}

var _ portsrepo.LoanRepositoryFacade = (*MockLoanRepository)(nil)

func (m *MockLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Callers mutate the loan they get back; hand out a copy.
	loan := *args.Get(0).(*domain.Loan)
	return &loan, args.Error(1)
}

func (m *MockLoanRepository) FindLoanByIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Callers mutate the loan they get back; hand out a copy.
	loan := *args.Get(0).(*domain.Loan)
	return &loan, args.Error(1)
}

func (m *MockLoanRepository) ListLoansByOwner(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Loan, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListAccruableLoanIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateLoanBalances(ctx context.Context, loan domain.Loan) (int64, error) {
	args := m.Called(ctx, loan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLoanRepository) DeleteLoan(ctx context.Context, loanID string) error {
	args := m.Called(ctx, loanID)
	return args.Error(0)
}

// --- Mock PaymentRepository ---
type MockPaymentRepository struct {
	mock.Mock
}

var _ portsrepo.PaymentRepositoryFacade = (*MockPaymentRepository)(nil)

func (m *MockPaymentRepository) ListPaymentsByLoan(ctx context.Context, loanID string, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	args := m.Called(ctx, loanID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Payment), returnedNextToken, args.Error(2)
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) DeletePaymentsByLoan(ctx context.Context, loanID string) (int64, error) {
	args := m.Called(ctx, loanID)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock DocumentBundleRepository ---
type MockDocumentRepository struct {
	mock.Mock
}

var _ portsrepo.DocumentBundleRepositoryFacade = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) SaveDocumentBundle(ctx context.Context, bundle domain.DocumentBundle) error {
	args := m.Called(ctx, bundle)
	return args.Error(0)
}

func (m *MockDocumentRepository) FindDocumentBundleByLoanID(ctx context.Context, loanID string) (*domain.DocumentBundle, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentBundle), args.Error(1)
}

func (m *MockDocumentRepository) DeleteDocumentBundle(ctx context.Context, loanID string) error {
	args := m.Called(ctx, loanID)
	return args.Error(0)
}

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Mock BlobStore ---
type MockBlobStore struct {
	mock.Mock
}

var _ storage.BlobStore = (*MockBlobStore)(nil)

func (m *MockBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) ListByPrefix(ctx context.Context, prefix string, pageToken string, pageSize int) (storage.ListPage, error) {
	args := m.Called(ctx, prefix, pageToken, pageSize)
	return args.Get(0).(storage.ListPage), args.Error(1)
}

func (m *MockBlobStore) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) DeleteOne(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockBlobStore) DeleteBatch(ctx context.Context, keys []string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockBlobStore) BatchLimit() int {
	args := m.Called()
	return args.Int(0)
}
