package domain_test

import (
	"testing"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoan_OutstandingAndIsOpen(t *testing.T) {
	tests := []struct {
		name            string
		loan            domain.Loan
		wantOutstanding decimal.Decimal
		wantOpen        bool
	}{
		{
			name: "fresh loan",
			loan: domain.Loan{
				PrincipalRemaining: decimal.NewFromInt(1000),
				AccruedInterest:    decimal.Zero,
			},
			wantOutstanding: decimal.NewFromInt(1000),
			wantOpen:        true,
		},
		{
			name: "principal paid, interest left",
			loan: domain.Loan{
				PrincipalRemaining: decimal.Zero,
				AccruedInterest:    decimal.RequireFromString("3.25"),
			},
			wantOutstanding: decimal.RequireFromString("3.25"),
			wantOpen:        false,
		},
		{
			name: "both components",
			loan: domain.Loan{
				PrincipalRemaining: decimal.RequireFromString("950.50"),
				AccruedInterest:    decimal.RequireFromString("0.3287671233"),
			},
			wantOutstanding: decimal.RequireFromString("950.8287671233"),
			wantOpen:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.wantOutstanding.Equal(tt.loan.Outstanding()), "got %s", tt.loan.Outstanding())
			assert.Equal(t, tt.wantOpen, tt.loan.IsOpen())
		})
	}
}

func TestLoanRole_IsValid(t *testing.T) {
	assert.True(t, domain.Lender.IsValid())
	assert.True(t, domain.Borrower.IsValid())
	assert.False(t, domain.LoanRole("GUARANTOR").IsValid())
	assert.False(t, domain.LoanRole("").IsValid())
}

func TestAccrualReport_HasFailures(t *testing.T) {
	assert.False(t, domain.AccrualReport{}.HasFailures())
	assert.True(t, domain.AccrualReport{Failures: []domain.AccrualFailure{{LoanID: "x"}}}.HasFailures())
}
