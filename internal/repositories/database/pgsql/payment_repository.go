package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/repositories"
	"github.com/SscSPs/p2p_loan_tracker/internal/models"
	"github.com/SscSPs/p2p_loan_tracker/internal/utils/mapping"
	"github.com/SscSPs/p2p_loan_tracker/internal/utils/pagination"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `payment_id, loan_id, amount, interest_portion, principal_portion,
	outstanding_balance_after, note, created_at, created_by`

// PgxPaymentRepository stores the append-only payment ledger.
type PgxPaymentRepository struct {
	BaseRepository
}

func newPgxPaymentRepository(pool *pgxpool.Pool) *PgxPaymentRepository {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
	_, err := r.db(ctx).Exec(ctx, query,
		m.PaymentID,
		m.LoanID,
		m.Amount,
		m.InterestPortion,
		m.PrincipalPortion,
		m.OutstandingBalanceAfter,
		m.Note,
		m.CreatedAt,
		m.CreatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert payment "+m.PaymentID)
	}
	return nil
}

// ListPaymentsByLoan pages through a loan's payments with a keyset on (created_at, payment_id).
func (r *PgxPaymentRepository) ListPaymentsByLoan(ctx context.Context, loanID string, limit int, nextToken *string) ([]domain.Payment, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	args := []any{loanID}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE loan_id = $1`
	if nextToken != nil && *nextToken != "" {
		afterCreatedAt, afterID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (created_at, payment_id) > ($2, $3::uuid)`
		args = append(args, afterCreatedAt, afterID)
	}
	// Fetch one extra row to know whether another page exists.
	query += fmt.Sprintf(` ORDER BY created_at, payment_id LIMIT $%d;`, len(args)+1)
	args = append(args, limit+1)

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, nil, translateError(err, "failed to query payments")
	}
	defer rows.Close()

	modelPayments := make([]models.Payment, 0, limit+1)
	for rows.Next() {
		var m models.Payment
		if err := rows.Scan(
			&m.PaymentID,
			&m.LoanID,
			&m.Amount,
			&m.InterestPortion,
			&m.PrincipalPortion,
			&m.OutstandingBalanceAfter,
			&m.Note,
			&m.CreatedAt,
			&m.CreatedBy,
		); err != nil {
			return nil, nil, translateError(err, "failed to scan payment row")
		}
		modelPayments = append(modelPayments, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, translateError(err, "error iterating payment rows")
	}

	var next *string
	if len(modelPayments) > limit {
		modelPayments = modelPayments[:limit]
		last := modelPayments[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.PaymentID)
		next = &token
	}
	return mapping.ToDomainPaymentSlice(modelPayments), next, nil
}

func (r *PgxPaymentRepository) DeletePaymentsByLoan(ctx context.Context, loanID string) (int64, error) {
	ct, err := r.db(ctx).Exec(ctx, `DELETE FROM payments WHERE loan_id = $1;`, loanID)
	if err != nil {
		return 0, translateError(err, "failed to delete payments of loan "+loanID)
	}
	return ct.RowsAffected(), nil
}
