package models

// DocumentBundle is the row shape of the document_bundles table.
type DocumentBundle struct {
	BundleID   string `db:"bundle_id"`
	LoanID     string `db:"loan_id"`
	BlobPrefix string `db:"blob_prefix"`
	AuditFields
}
