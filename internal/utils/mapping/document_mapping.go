package mapping

import (
	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	"github.com/SscSPs/p2p_loan_tracker/internal/models"
)

// ToModelDocumentBundle converts a domain DocumentBundle to a model DocumentBundle
func ToModelDocumentBundle(d domain.DocumentBundle) models.DocumentBundle {
	return models.DocumentBundle{
		BundleID:    d.BundleID,
		LoanID:      d.LoanID,
		BlobPrefix:  d.BlobPrefix,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainDocumentBundle converts a model DocumentBundle to a domain DocumentBundle
func ToDomainDocumentBundle(m models.DocumentBundle) domain.DocumentBundle {
	return domain.DocumentBundle{
		BundleID:    m.BundleID,
		LoanID:      m.LoanID,
		BlobPrefix:  m.BlobPrefix,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
