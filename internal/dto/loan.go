package dto

import (
	"time"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLoanRequest holds the loan fields of a multipart loan creation request.
type CreateLoanRequest struct {
	Role          string          `form:"role" json:"role" binding:"required,oneof=LENDER BORROWER"`
	Title         string          `form:"title" json:"title" binding:"required,max=200"`
	Description   string          `form:"description" json:"description" binding:"max=2000"`
	Counterparty  string          `form:"counterparty" json:"counterparty" binding:"max=200"`
	InitialAmount decimal.Decimal `form:"initialAmount" json:"initialAmount" binding:"decimal_gt0"`
	InterestRate  decimal.Decimal `form:"interestRate" json:"interestRate" binding:"decimal_rate"`
	TermCount     int             `form:"termCount" json:"termCount" binding:"gte=0,lte=1200"`
	TermPayment   decimal.Decimal `form:"termPayment" json:"termPayment" binding:"decimal_gte0"`
}

// ListLoansParams defines query parameters for listing loans.
type ListLoansParams struct {
	Limit  int `form:"limit,default=20" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

// LoanResponse defines the data returned for a loan.
type LoanResponse struct {
	LoanID             string          `json:"loanID"`
	Role               string          `json:"role"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Counterparty       string          `json:"counterparty"`
	TermCount          int             `json:"termCount"`
	TermPayment        decimal.Decimal `json:"termPayment"`
	InitialAmount      decimal.Decimal `json:"initialAmount"`
	RemainingAmount    decimal.Decimal `json:"remainingAmount"`
	AccruedInterest    decimal.Decimal `json:"accruedInterest"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	InterestRate       decimal.Decimal `json:"interestRate"`
	LastAccrualAt      *time.Time      `json:"lastAccrualAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	LastUpdatedAt      time.Time       `json:"lastUpdatedAt"`
}

// ListLoansResponse wraps the list of loans.
type ListLoansResponse struct {
	Loans []LoanResponse `json:"loans"`
}

// ToLoanResponse converts a domain.Loan to LoanResponse DTO.
func ToLoanResponse(l *domain.Loan) LoanResponse {
	return LoanResponse{
		LoanID:             l.LoanID,
		Role:               string(l.Role),
		Title:              l.Title,
		Description:        l.Description,
		Counterparty:       l.Counterparty,
		TermCount:          l.TermCount,
		TermPayment:        l.TermPayment,
		InitialAmount:      l.PrincipalInitial,
		RemainingAmount:    l.PrincipalRemaining,
		AccruedInterest:    l.AccruedInterest,
		OutstandingBalance: l.Outstanding(),
		InterestRate:       l.InterestRateAnnual,
		LastAccrualAt:      l.LastAccrualAt,
		CreatedAt:          l.CreatedAt,
		LastUpdatedAt:      l.LastUpdatedAt,
	}
}

// ToListLoansResponse converts a slice of domain.Loan to ListLoansResponse DTO.
func ToListLoansResponse(loans []domain.Loan) ListLoansResponse {
	responses := make([]LoanResponse, len(loans))
	for i := range loans {
		responses[i] = ToLoanResponse(&loans[i])
	}
	return ListLoansResponse{Loans: responses}
}
