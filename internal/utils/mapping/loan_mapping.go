package mapping

import (
	"database/sql"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	"github.com/SscSPs/p2p_loan_tracker/internal/models"
)

// ToModelLoan converts a domain Loan to a model Loan
func ToModelLoan(d domain.Loan) models.Loan {
	m := models.Loan{
		LoanID:             d.LoanID,
		OwnerID:            d.OwnerID,
		Role:               string(d.Role),
		Title:              d.Title,
		Description:        d.Description,
		Counterparty:       d.Counterparty,
		TermCount:          d.TermCount,
		TermPayment:        d.TermPayment,
		PrincipalInitial:   d.PrincipalInitial,
		PrincipalRemaining: d.PrincipalRemaining,
		AccruedInterest:    d.AccruedInterest,
		InterestRateAnnual: d.InterestRateAnnual,
		Version:            d.Version,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
	if d.LastAccrualAt != nil {
		m.LastAccrualAt = sql.NullTime{Time: *d.LastAccrualAt, Valid: true}
	}
	return m
}

// ToDomainLoan converts a model Loan to a domain Loan
func ToDomainLoan(m models.Loan) domain.Loan {
	d := domain.Loan{
		LoanID:             m.LoanID,
		OwnerID:            m.OwnerID,
		Role:               domain.LoanRole(m.Role),
		Title:              m.Title,
		Description:        m.Description,
		Counterparty:       m.Counterparty,
		TermCount:          m.TermCount,
		TermPayment:        m.TermPayment,
		PrincipalInitial:   m.PrincipalInitial,
		PrincipalRemaining: m.PrincipalRemaining,
		AccruedInterest:    m.AccruedInterest,
		InterestRateAnnual: m.InterestRateAnnual,
		Version:            m.Version,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
	if m.LastAccrualAt.Valid {
		t := m.LastAccrualAt.Time
		d.LastAccrualAt = &t
	}
	return d
}

// ToDomainLoanSlice converts a slice of model Loans to a slice of domain Loans
func ToDomainLoanSlice(ms []models.Loan) []domain.Loan {
	ds := make([]domain.Loan, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLoan(m)
	}
	return ds
}
