package pgsql

import (
	"context"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/repositories"
	"github.com/SscSPs/p2p_loan_tracker/internal/models"
	"github.com/SscSPs/p2p_loan_tracker/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxDocumentBundleRepository stores the one-per-loan document bundle rows.
type PgxDocumentBundleRepository struct {
	BaseRepository
}

func newPgxDocumentBundleRepository(pool *pgxpool.Pool) *PgxDocumentBundleRepository {
	return &PgxDocumentBundleRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.DocumentBundleRepositoryFacade = (*PgxDocumentBundleRepository)(nil)

func (r *PgxDocumentBundleRepository) SaveDocumentBundle(ctx context.Context, bundle domain.DocumentBundle) error {
	m := mapping.ToModelDocumentBundle(bundle)
	query := `
		INSERT INTO document_bundles (bundle_id, loan_id, blob_prefix, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.db(ctx).Exec(ctx, query,
		m.BundleID,
		m.LoanID,
		m.BlobPrefix,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return translateError(err, "failed to insert document bundle for loan "+m.LoanID)
	}
	return nil
}

func (r *PgxDocumentBundleRepository) FindDocumentBundleByLoanID(ctx context.Context, loanID string) (*domain.DocumentBundle, error) {
	query := `
		SELECT bundle_id, loan_id, blob_prefix, created_at, created_by, last_updated_at, last_updated_by
		FROM document_bundles
		WHERE loan_id = $1;
	`
	var m models.DocumentBundle
	err := r.db(ctx).QueryRow(ctx, query, loanID).Scan(
		&m.BundleID,
		&m.LoanID,
		&m.BlobPrefix,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, translateError(err, "failed to find document bundle for loan "+loanID)
	}
	bundle := mapping.ToDomainDocumentBundle(m)
	return &bundle, nil
}

// DeleteDocumentBundle is idempotent: deleting a missing bundle is not an error.
func (r *PgxDocumentBundleRepository) DeleteDocumentBundle(ctx context.Context, loanID string) error {
	if _, err := r.db(ctx).Exec(ctx, `DELETE FROM document_bundles WHERE loan_id = $1;`, loanID); err != nil {
		return translateError(err, "failed to delete document bundle for loan "+loanID)
	}
	return nil
}
