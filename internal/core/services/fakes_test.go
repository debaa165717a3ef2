package services_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/SscSPs/p2p_loan_tracker/internal/adapters/blobstore/memblob"
	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/repositories"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/ports/storage"
)

// ledgerState is one copy of every table the services touch.
type ledgerState struct {
	loans    map[string]domain.Loan
	payments map[string][]domain.Payment
	bundles  map[string]domain.DocumentBundle
}

func (s *ledgerState) clone() *ledgerState {
	c := &ledgerState{
		loans:    make(map[string]domain.Loan, len(s.loans)),
		payments: make(map[string][]domain.Payment, len(s.payments)),
		bundles:  make(map[string]domain.DocumentBundle, len(s.bundles)),
	}
	for k, v := range s.loans {
		c.loans[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = append([]domain.Payment(nil), v...)
	}
	for k, v := range s.bundles {
		c.bundles[k] = v
	}
	return c
}

type ledgerTxKey struct{}

// fakeLedger is an in-memory LoanAccountStore. A transaction works on a copy
// of the committed state and swaps it in on success, so a failed unit of
// work leaves nothing behind. Transactions are serialized.
type fakeLedger struct {
	txMu    sync.Mutex
	stateMu sync.RWMutex
	state   *ledgerState

	failMu   sync.Mutex
	failures map[string]error
}

var (
	_ portsrepo.TransactionManager             = (*fakeLedger)(nil)
	_ portsrepo.LoanRepositoryFacade           = (*fakeLedger)(nil)
	_ portsrepo.PaymentRepositoryFacade        = (*fakeLedger)(nil)
	_ portsrepo.DocumentBundleRepositoryFacade = (*fakeLedger)(nil)
)

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		state: &ledgerState{
			loans:    map[string]domain.Loan{},
			payments: map[string][]domain.Payment{},
			bundles:  map[string]domain.DocumentBundle{},
		},
		failures: map[string]error{},
	}
}

func (f *fakeLedger) provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{TxManager: f, LoanRepo: f, PaymentRepo: f, DocumentRepo: f}
}

func (f *fakeLedger) failOn(method string, err error) {
	f.failMu.Lock()
	defer f.failMu.Unlock()
	if err == nil {
		delete(f.failures, method)
		return
	}
	f.failures[method] = err
}

func (f *fakeLedger) fail(method string) error {
	f.failMu.Lock()
	defer f.failMu.Unlock()
	return f.failures[method]
}

func (f *fakeLedger) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(ledgerTxKey{}).(*ledgerState); ok {
		return fn(ctx)
	}
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.stateMu.RLock()
	work := f.state.clone()
	f.stateMu.RUnlock()

	if err := fn(context.WithValue(ctx, ledgerTxKey{}, work)); err != nil {
		return err
	}
	if err := f.fail("Commit"); err != nil {
		return apperrors.NewPersistenceError("failed to commit transaction", err)
	}
	f.stateMu.Lock()
	f.state = work
	f.stateMu.Unlock()
	return nil
}

func (f *fakeLedger) current(ctx context.Context) *ledgerState {
	if st, ok := ctx.Value(ledgerTxKey{}).(*ledgerState); ok {
		return st
	}
	f.stateMu.RLock()
	defer f.stateMu.RUnlock()
	return f.state
}

// snapshot returns a copy of the committed state.
func (f *fakeLedger) snapshot() *ledgerState {
	f.stateMu.RLock()
	defer f.stateMu.RUnlock()
	return f.state.clone()
}

func (f *fakeLedger) seedLoan(loan domain.Loan) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.state.loans[loan.LoanID] = loan
}

func (f *fakeLedger) seedBundle(bundle domain.DocumentBundle) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.state.bundles[bundle.LoanID] = bundle
}

func (f *fakeLedger) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if err := f.fail("FindLoanByID"); err != nil {
		return nil, err
	}
	loan, ok := f.current(ctx).loans[loanID]
	if !ok {
		return nil, fmt.Errorf("loan %s: %w", loanID, apperrors.ErrNotFound)
	}
	return &loan, nil
}

func (f *fakeLedger) FindLoanByIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if _, ok := ctx.Value(ledgerTxKey{}).(*ledgerState); !ok {
		return nil, apperrors.NewPersistenceError("row lock requested outside a transaction", errors.New("no transaction"))
	}
	return f.FindLoanByID(ctx, loanID)
}

func (f *fakeLedger) ListLoansByOwner(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Loan, error) {
	var out []domain.Loan
	for _, l := range f.current(ctx).loans {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoanID < out[j].LoanID })
	if offset >= len(out) {
		return []domain.Loan{}, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func (f *fakeLedger) ListAccruableLoanIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for id, l := range f.current(ctx).loans {
		if l.PrincipalRemaining.IsPositive() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeLedger) SaveLoan(ctx context.Context, loan domain.Loan) error {
	if err := f.fail("SaveLoan"); err != nil {
		return err
	}
	st := f.current(ctx)
	if _, ok := st.loans[loan.LoanID]; ok {
		return fmt.Errorf("loan %s: %w", loan.LoanID, apperrors.ErrDuplicate)
	}
	st.loans[loan.LoanID] = loan
	return nil
}

func (f *fakeLedger) UpdateLoanBalances(ctx context.Context, loan domain.Loan) (int64, error) {
	if err := f.fail("UpdateLoanBalances"); err != nil {
		return 0, err
	}
	st := f.current(ctx)
	stored, ok := st.loans[loan.LoanID]
	if !ok || stored.Version != loan.Version {
		return 0, apperrors.NewConflictError("loan " + loan.LoanID + " was modified concurrently")
	}
	stored.PrincipalRemaining = loan.PrincipalRemaining
	stored.AccruedInterest = loan.AccruedInterest
	stored.LastAccrualAt = loan.LastAccrualAt
	stored.LastUpdatedAt = loan.LastUpdatedAt
	stored.LastUpdatedBy = loan.LastUpdatedBy
	stored.Version++
	st.loans[loan.LoanID] = stored
	return stored.Version, nil
}

func (f *fakeLedger) DeleteLoan(ctx context.Context, loanID string) error {
	if err := f.fail("DeleteLoan"); err != nil {
		return err
	}
	st := f.current(ctx)
	if _, ok := st.loans[loanID]; !ok {
		return fmt.Errorf("loan %s: %w", loanID, apperrors.ErrNotFound)
	}
	delete(st.loans, loanID)
	return nil
}

func (f *fakeLedger) ListPaymentsByLoan(ctx context.Context, loanID string, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	payments := f.current(ctx).payments[loanID]
	return append([]domain.Payment{}, payments[:min(limit, len(payments))]...), nil, nil
}

func (f *fakeLedger) SavePayment(ctx context.Context, payment domain.Payment) error {
	if err := f.fail("SavePayment"); err != nil {
		return err
	}
	st := f.current(ctx)
	st.payments[payment.LoanID] = append(st.payments[payment.LoanID], payment)
	return nil
}

func (f *fakeLedger) DeletePaymentsByLoan(ctx context.Context, loanID string) (int64, error) {
	st := f.current(ctx)
	n := int64(len(st.payments[loanID]))
	delete(st.payments, loanID)
	return n, nil
}

func (f *fakeLedger) SaveDocumentBundle(ctx context.Context, bundle domain.DocumentBundle) error {
	if err := f.fail("SaveDocumentBundle"); err != nil {
		return err
	}
	f.current(ctx).bundles[bundle.LoanID] = bundle
	return nil
}

func (f *fakeLedger) FindDocumentBundleByLoanID(ctx context.Context, loanID string) (*domain.DocumentBundle, error) {
	b, ok := f.current(ctx).bundles[loanID]
	if !ok {
		return nil, fmt.Errorf("bundle of loan %s: %w", loanID, apperrors.ErrNotFound)
	}
	return &b, nil
}

func (f *fakeLedger) DeleteDocumentBundle(ctx context.Context, loanID string) error {
	delete(f.current(ctx).bundles, loanID)
	return nil
}

// flakyBlobStore wraps memblob and injects failures.
type flakyBlobStore struct {
	*memblob.Store

	mu              sync.Mutex
	failPutAt       int // 1-based Put call that fails, 0 for none
	storeThenFail   bool // the failing Put stores the object before erroring
	putCalls        int
	deleteBatchErr  error
	deleteBatchCall int
}

var _ storage.BlobStore = (*flakyBlobStore)(nil)

func newFlakyBlobStore(batchLimit int) *flakyBlobStore {
	return &flakyBlobStore{Store: memblob.New(batchLimit)}
}

func (s *flakyBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	s.putCalls++
	fail := s.failPutAt > 0 && s.putCalls == s.failPutAt
	storeFirst := s.storeThenFail
	s.mu.Unlock()
	if fail {
		if storeFirst {
			if _, err := s.Store.Put(ctx, key, data, contentType); err != nil {
				return "", err
			}
			return "", apperrors.NewStorageError("injected put timeout for "+key, context.DeadlineExceeded)
		}
		return "", apperrors.NewStorageError("injected put failure for "+key, errors.New("503 service unavailable"))
	}
	return s.Store.Put(ctx, key, data, contentType)
}

func (s *flakyBlobStore) DeleteBatch(ctx context.Context, keys []string) error {
	s.mu.Lock()
	s.deleteBatchCall++
	err := s.deleteBatchErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.DeleteBatch(ctx, keys)
}

func (s *flakyBlobStore) setDeleteBatchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteBatchErr = err
}
