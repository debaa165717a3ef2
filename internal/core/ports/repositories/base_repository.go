package repositories

import (
	"context"
)

// TransactionManager defines methods for transaction management.
type TransactionManager interface {
	// WithTransaction runs fn inside one database transaction. Repository calls
	// made with the context passed to fn join that transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RepositoryWithTx is a marker interface for repositories that support transactions
type RepositoryWithTx interface {
	TransactionManager
}
