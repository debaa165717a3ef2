package pgsql

import (
	portsrepo "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every PostgreSQL repository over one pool.
// All of them share the pool, so a transaction opened by TxManager is joined
// by any repository called with the transaction's context.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:    NewTransactionManager(dbPool),
		LoanRepo:     newPgxLoanRepository(dbPool),
		PaymentRepo:  newPgxPaymentRepository(dbPool),
		DocumentRepo: newPgxDocumentBundleRepository(dbPool),
		UserRepo:     newPgxUserRepository(dbPool),
	}
}
