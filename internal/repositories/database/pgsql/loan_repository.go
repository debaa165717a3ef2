package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/repositories"
	"github.com/SscSPs/p2p_loan_tracker/internal/models"
	"github.com/SscSPs/p2p_loan_tracker/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const loanColumns = `loan_id, owner_id, role, title, description, counterparty, term_count, term_payment,
	principal_initial, principal_remaining, accrued_interest, interest_rate_annual, last_accrual_at, version,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxLoanRepository stores loans in PostgreSQL.
type PgxLoanRepository struct {
	BaseRepository
}

func newPgxLoanRepository(pool *pgxpool.Pool) *PgxLoanRepository {
	return &PgxLoanRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxLoanRepository implements portsrepo.LoanRepositoryFacade
var _ portsrepo.LoanRepositoryFacade = (*PgxLoanRepository)(nil)

func scanLoan(row pgx.Row) (models.Loan, error) {
	var m models.Loan
	err := row.Scan(
		&m.LoanID,
		&m.OwnerID,
		&m.Role,
		&m.Title,
		&m.Description,
		&m.Counterparty,
		&m.TermCount,
		&m.TermPayment,
		&m.PrincipalInitial,
		&m.PrincipalRemaining,
		&m.AccruedInterest,
		&m.InterestRateAnnual,
		&m.LastAccrualAt,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxLoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	m := mapping.ToModelLoan(loan)
	query := `INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);`

	_, err := r.db(ctx).Exec(ctx, query,
		m.LoanID,
		m.OwnerID,
		m.Role,
		m.Title,
		m.Description,
		m.Counterparty,
		m.TermCount,
		m.TermPayment,
		m.PrincipalInitial,
		m.PrincipalRemaining,
		m.AccruedInterest,
		m.InterestRateAnnual,
		m.LastAccrualAt,
		m.Version,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert loan "+m.LoanID)
	}
	return nil
}

func (r *PgxLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1;`
	m, err := scanLoan(r.db(ctx).QueryRow(ctx, query, loanID))
	if err != nil {
		return nil, translateError(err, "failed to find loan "+loanID)
	}
	loan := mapping.ToDomainLoan(m)
	return &loan, nil
}

// FindLoanByIDForUpdate locks the loan row with SELECT ... FOR UPDATE.
// Must be called within a transaction.
func (r *PgxLoanRepository) FindLoanByIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	tx, ok := txFromContext(ctx)
	if !ok {
		return nil, apperrors.NewPersistenceError("row lock requested outside a transaction", errors.New("no transaction in context"))
	}
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1 FOR UPDATE;`
	m, err := scanLoan(tx.QueryRow(ctx, query, loanID))
	if err != nil {
		return nil, translateError(err, "failed to lock loan "+loanID)
	}
	loan := mapping.ToDomainLoan(m)
	return &loan, nil
}

// UpdateLoanBalances is a compare-and-write on the version column.
func (r *PgxLoanRepository) UpdateLoanBalances(ctx context.Context, loan domain.Loan) (int64, error) {
	m := mapping.ToModelLoan(loan)
	query := `
		UPDATE loans
		SET principal_remaining = $2, accrued_interest = $3, last_accrual_at = $4,
		    last_updated_at = $5, last_updated_by = $6, version = version + 1
		WHERE loan_id = $1 AND version = $7
		RETURNING version;
	`
	var newVersion int64
	err := r.db(ctx).QueryRow(ctx, query,
		m.LoanID,
		m.PrincipalRemaining,
		m.AccruedInterest,
		m.LastAccrualAt,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NewConflictError(fmt.Sprintf("loan %s was modified concurrently (expected version %d)", m.LoanID, m.Version))
		}
		return 0, translateError(err, "failed to update balances of loan "+m.LoanID)
	}
	return newVersion, nil
}

func (r *PgxLoanRepository) ListLoansByOwner(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Loan, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + loanColumns + `
		FROM loans
		WHERE owner_id = $1
		ORDER BY created_at DESC, loan_id
		LIMIT $2 OFFSET $3;`

	rows, err := r.db(ctx).Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, translateError(err, "failed to query loans")
	}
	defer rows.Close()

	modelLoans := []models.Loan{}
	for rows.Next() {
		m, err := scanLoan(rows)
		if err != nil {
			return nil, translateError(err, "failed to scan loan row")
		}
		modelLoans = append(modelLoans, m)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "error iterating loan rows")
	}
	return mapping.ToDomainLoanSlice(modelLoans), nil
}

func (r *PgxLoanRepository) ListAccruableLoanIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT loan_id::text FROM loans WHERE principal_remaining > 0 ORDER BY loan_id;`)
	if err != nil {
		return nil, translateError(err, "failed to query accruable loans")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, translateError(err, "failed to collect accruable loan IDs")
	}
	return ids, nil
}

func (r *PgxLoanRepository) DeleteLoan(ctx context.Context, loanID string) error {
	ct, err := r.db(ctx).Exec(ctx, `DELETE FROM loans WHERE loan_id = $1;`, loanID)
	if err != nil {
		return translateError(err, "failed to delete loan "+loanID)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("loan %s: %w", loanID, apperrors.ErrNotFound)
	}
	return nil
}
