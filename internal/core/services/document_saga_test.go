package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/services"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/ports/storage"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/services"
	"github.com/SscSPs/p2p_loan_tracker/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func createLoanRequest() dto.CreateLoanRequest {
	return dto.CreateLoanRequest{
		Role:          string(domain.Lender),
		Title:         "Loan to Sam",
		Counterparty:  "Sam",
		InitialAmount: dec("1000.00"),
		InterestRate:  dec("0.12"),
		TermCount:     12,
		TermPayment:   dec("90.00"),
	}
}

func uploadFiles(n int) []domain.UploadFile {
	files := make([]domain.UploadFile, n)
	for i := range files {
		files[i] = domain.UploadFile{
			Name:        fmt.Sprintf("scan %d.pdf", i),
			ContentType: "application/pdf",
			Data:        []byte(fmt.Sprintf("document %d", i)),
		}
	}
	return files
}

type DocumentSagaTestSuite struct {
	suite.Suite
	ledger *fakeLedger
	blobs  *flakyBlobStore
	saga   portssvc.DocumentSagaSvc
}

func (suite *DocumentSagaTestSuite) SetupTest() {
	suite.ledger = newFakeLedger()
	suite.blobs = newFlakyBlobStore(2)
	suite.saga = services.NewDocumentSaga(suite.ledger.provider(), suite.blobs,
		services.WithUploadLimits(5, 1024),
		services.WithCompensationTimeout(time.Second),
		services.WithSagaClock(func() time.Time { return fixedNow }))
}

func (suite *DocumentSagaTestSuite) keysUnder(prefix string) []string {
	page, err := suite.blobs.ListByPrefix(context.Background(), prefix, "", 1000)
	suite.Require().NoError(err)
	return page.Keys
}

func (suite *DocumentSagaTestSuite) TestCreate_StoresLoanBundleAndFiles() {
	loan, err := suite.saga.CreateWithDocuments(context.Background(), testOwnerID, createLoanRequest(), uploadFiles(3))

	suite.Require().NoError(err)
	suite.True(loan.PrincipalRemaining.Equal(loan.PrincipalInitial))
	suite.True(loan.AccruedInterest.IsZero())
	suite.Equal(int64(1), loan.Version)
	suite.Equal(fixedNow, loan.CreatedAt)

	state := suite.ledger.snapshot()
	suite.Contains(state.loans, loan.LoanID)
	bundle, ok := state.bundles[loan.LoanID]
	suite.Require().True(ok)
	prefix := services.BlobPrefix(testOwnerID, loan.LoanID)
	suite.Equal(prefix, bundle.BlobPrefix)

	suite.Equal([]string{
		prefix + "0-scan_0.pdf",
		prefix + "1-scan_1.pdf",
		prefix + "2-scan_2.pdf",
	}, suite.keysUnder(prefix))
	data, contentType, ok := suite.blobs.Get(prefix + "1-scan_1.pdf")
	suite.Require().True(ok)
	suite.Equal("document 1", string(data))
	suite.Equal("application/pdf", contentType)
}

func (suite *DocumentSagaTestSuite) TestCreate_WithoutFilesStillCreatesBundle() {
	loan, err := suite.saga.CreateWithDocuments(context.Background(), testOwnerID, createLoanRequest(), nil)

	suite.Require().NoError(err)
	suite.Contains(suite.ledger.snapshot().bundles, loan.LoanID)
	suite.Equal(0, suite.blobs.Len())
}

// Loan created with 3 files; the second upload fails.
func (suite *DocumentSagaTestSuite) TestCreate_UploadFailureRollsBackEverything() {
	suite.blobs.failPutAt = 2

	loan, err := suite.saga.CreateWithDocuments(context.Background(), testOwnerID, createLoanRequest(), uploadFiles(3))

	suite.Require().Error(err)
	suite.Nil(loan)
	suite.ErrorIs(err, apperrors.ErrStorage)
	suite.Equal(0, suite.blobs.Len(), "the first upload is compensated")
	suite.Equal(1, suite.blobs.deleteBatchCall)

	state := suite.ledger.snapshot()
	suite.Empty(state.loans)
	suite.Empty(state.bundles)
}

// The second upload times out after the object was written.
func (suite *DocumentSagaTestSuite) TestCreate_AmbiguousUploadFailureIsCompensated() {
	suite.blobs.failPutAt = 2
	suite.blobs.storeThenFail = true

	_, err := suite.saga.CreateWithDocuments(context.Background(), testOwnerID, createLoanRequest(), uploadFiles(3))

	suite.Require().ErrorIs(err, apperrors.ErrStorage)
	suite.Equal(0, suite.blobs.Len(), "the object written by the failed Put is deleted too")
	suite.Empty(suite.ledger.snapshot().loans)
}

func (suite *DocumentSagaTestSuite) TestCreate_KthOfMUploadFails() {
	for m := 1; m <= 4; m++ {
		for k := 1; k <= m; k++ {
			suite.SetupTest()
			suite.blobs.failPutAt = k

			_, err := suite.saga.CreateWithDocuments(context.Background(), testOwnerID, createLoanRequest(), uploadFiles(m))

			suite.Require().Error(err, "k=%d m=%d", k, m)
			suite.Equal(0, suite.blobs.Len(), "k=%d m=%d", k, m)
			suite.Empty(suite.ledger.snapshot().loans, "k=%d m=%d", k, m)
		}
	}
}

func (suite *DocumentSagaTestSuite) TestCreate_BundleInsertFailureCompensatesAllUploads() {
	suite.ledger.failOn("SaveDocumentBundle", apperrors.NewPersistenceError("insert bundle", errors.New("constraint")))

	_, err := suite.saga.CreateWithDocuments(context.Background(), testOwnerID, createLoanRequest(), uploadFiles(3))

	suite.ErrorIs(err, apperrors.ErrPersistence)
	suite.Equal(0, suite.blobs.Len())
	suite.Empty(suite.ledger.snapshot().loans)
	suite.Equal(2, suite.blobs.deleteBatchCall, "3 keys in batches of 2")
}

func (suite *DocumentSagaTestSuite) TestCreate_CommitFailureCompensatesUploads() {
	suite.ledger.failOn("Commit", errors.New("connection lost"))

	_, err := suite.saga.CreateWithDocuments(context.Background(), testOwnerID, createLoanRequest(), uploadFiles(2))

	suite.ErrorIs(err, apperrors.ErrPersistence)
	suite.Equal(0, suite.blobs.Len())
	suite.Empty(suite.ledger.snapshot().loans)
}

func (suite *DocumentSagaTestSuite) TestCreate_CompensationFailureKeepsPrimaryError() {
	suite.blobs.failPutAt = 2
	suite.blobs.setDeleteBatchErr(apperrors.NewStorageError("compensation delete failed", errors.New("403")))

	_, err := suite.saga.CreateWithDocuments(context.Background(), testOwnerID, createLoanRequest(), uploadFiles(3))

	suite.Require().Error(err)
	suite.Contains(err.Error(), "injected put failure")
	suite.NotContains(err.Error(), "compensation delete failed")
	suite.Equal(1, suite.blobs.Len(), "the orphaned blob is the acknowledged leak")
	suite.Empty(suite.ledger.snapshot().loans)
}

func (suite *DocumentSagaTestSuite) TestCreate_CanceledRequestStillCompensates() {
	ctx, cancel := context.WithCancel(context.Background())
	suite.blobs.failPutAt = 2
	// The failing Put cancels the caller; compensation runs on a detached context.
	wrapped := &cancelOnFailStore{flakyBlobStore: suite.blobs, cancel: cancel}
	saga := services.NewDocumentSaga(suite.ledger.provider(), wrapped)

	_, err := saga.CreateWithDocuments(ctx, testOwnerID, createLoanRequest(), uploadFiles(3))

	suite.Error(err)
	suite.Equal(0, suite.blobs.Len())
}

func (suite *DocumentSagaTestSuite) TestCreate_Validation() {
	testCases := []struct {
		name   string
		mutate func(*dto.CreateLoanRequest)
		files  []domain.UploadFile
	}{
		{"unknown role", func(r *dto.CreateLoanRequest) { r.Role = "FRIEND" }, nil},
		{"blank title", func(r *dto.CreateLoanRequest) { r.Title = "  " }, nil},
		{"zero amount", func(r *dto.CreateLoanRequest) { r.InitialAmount = dec("0") }, nil},
		{"rate above one", func(r *dto.CreateLoanRequest) { r.InterestRate = dec("12") }, nil},
		{"negative term payment", func(r *dto.CreateLoanRequest) { r.TermPayment = dec("-1") }, nil},
		{"too many files", func(r *dto.CreateLoanRequest) {}, uploadFiles(6)},
		{"file too large", func(r *dto.CreateLoanRequest) {}, []domain.UploadFile{{Name: "big", Data: make([]byte, 1025)}}},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			req := createLoanRequest()
			tc.mutate(&req)

			_, err := suite.saga.CreateWithDocuments(context.Background(), testOwnerID, req, tc.files)

			suite.ErrorIs(err, apperrors.ErrValidation)
			suite.Empty(suite.ledger.snapshot().loans)
			suite.Equal(0, suite.blobs.Len())
		})
	}
}

// N blobs with N greater than the batch limit of 2 forces several list/delete rounds.
func (suite *DocumentSagaTestSuite) TestDelete_RemovesAllBlobsAndRows() {
	ctx := context.Background()
	loan, err := suite.saga.CreateWithDocuments(ctx, testOwnerID, createLoanRequest(), uploadFiles(5))
	suite.Require().NoError(err)
	other, err := suite.saga.CreateWithDocuments(ctx, testOwnerID, createLoanRequest(), uploadFiles(1))
	suite.Require().NoError(err)

	allocator := services.NewPaymentAllocator(suite.ledger, suite.ledger, suite.ledger)
	_, _, err = allocator.Apply(ctx, testOwnerID, loan.LoanID, dec("100.00"), "")
	suite.Require().NoError(err)
	suite.Len(suite.ledger.snapshot().payments[loan.LoanID], 1)

	suite.Require().NoError(suite.saga.DeleteLoan(ctx, testOwnerID, loan.LoanID))

	suite.Empty(suite.keysUnder(services.BlobPrefix(testOwnerID, loan.LoanID)))
	suite.Equal(3, suite.blobs.deleteBatchCall)
	state := suite.ledger.snapshot()
	suite.NotContains(state.loans, loan.LoanID)
	suite.NotContains(state.bundles, loan.LoanID)
	suite.Empty(state.payments[loan.LoanID])

	suite.Contains(state.loans, other.LoanID)
	suite.Len(suite.keysUnder(services.BlobPrefix(testOwnerID, other.LoanID)), 1)
}

func (suite *DocumentSagaTestSuite) TestDelete_BlobFailureLeavesRowsAndIsRetrySafe() {
	ctx := context.Background()
	loan, err := suite.saga.CreateWithDocuments(ctx, testOwnerID, createLoanRequest(), uploadFiles(3))
	suite.Require().NoError(err)

	suite.blobs.setDeleteBatchErr(apperrors.NewStorageError("failed to delete batch", errors.New("503")))
	err = suite.saga.DeleteLoan(ctx, testOwnerID, loan.LoanID)
	suite.ErrorIs(err, apperrors.ErrStorage)
	suite.Contains(suite.ledger.snapshot().loans, loan.LoanID)
	suite.Contains(suite.ledger.snapshot().bundles, loan.LoanID)

	suite.blobs.setDeleteBatchErr(nil)
	suite.Require().NoError(suite.saga.DeleteLoan(ctx, testOwnerID, loan.LoanID))
	suite.Equal(0, suite.blobs.Len())
	suite.Empty(suite.ledger.snapshot().loans)
}

func (suite *DocumentSagaTestSuite) TestDelete_OtherOwnerIsNotFound() {
	loan, err := suite.saga.CreateWithDocuments(context.Background(), testOwnerID, createLoanRequest(), uploadFiles(1))
	suite.Require().NoError(err)

	err = suite.saga.DeleteLoan(context.Background(), "intruder", loan.LoanID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Equal(1, suite.blobs.Len())
	suite.Contains(suite.ledger.snapshot().loans, loan.LoanID)
}

func (suite *DocumentSagaTestSuite) TestDelete_LoanWithoutBundle() {
	loan := testLoan("1000.00", "0")
	suite.ledger.seedLoan(*loan)

	suite.Require().NoError(suite.saga.DeleteLoan(context.Background(), testOwnerID, loan.LoanID))
	suite.Empty(suite.ledger.snapshot().loans)
	suite.Equal(0, suite.blobs.deleteBatchCall)
}

func (suite *DocumentSagaTestSuite) TestDelete_MissingLoan() {
	err := suite.saga.DeleteLoan(context.Background(), testOwnerID, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestDocumentSagaTestSuite(t *testing.T) {
	suite.Run(t, new(DocumentSagaTestSuite))
}

func TestDelete_TruncatedEmptyPageIsAnError(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedLoan(*testLoan("1000.00", "0"))
	prefix := services.BlobPrefix(testOwnerID, testLoanID)
	ledger.seedBundle(domain.DocumentBundle{BundleID: "b1", LoanID: testLoanID, BlobPrefix: prefix})

	blobs := new(MockBlobStore)
	blobs.On("BatchLimit").Return(100)
	blobs.On("ListByPrefix", mock.Anything, prefix, "", 100).
		Return(storage.ListPage{Truncated: true, NextPageToken: "x"}, nil).Once()

	saga := services.NewDocumentSaga(ledger.provider(), blobs)
	err := saga.DeleteLoan(context.Background(), testOwnerID, testLoanID)

	require.ErrorIs(t, err, apperrors.ErrStorage)
	assert.Contains(t, err.Error(), "no progress")
	blobs.AssertNotCalled(t, "DeleteBatch", mock.Anything, mock.Anything)
	assert.Contains(t, ledger.snapshot().loans, testLoanID)
}

func TestBlobPrefix(t *testing.T) {
	prefix := services.BlobPrefix("u1", "l1")
	assert.Equal(t, "u1/l1/", prefix)
	assert.True(t, strings.HasSuffix(prefix, "/"))
}

// cancelOnFailStore cancels the caller's context when a Put fails.
type cancelOnFailStore struct {
	*flakyBlobStore
	cancel context.CancelFunc
}

func (s *cancelOnFailStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	loc, err := s.flakyBlobStore.Put(ctx, key, data, contentType)
	if err != nil {
		s.cancel()
	}
	return loc, err
}

func (s *cancelOnFailStore) DeleteBatch(ctx context.Context, keys []string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return s.flakyBlobStore.DeleteBatch(ctx, keys)
}
