package dto

import (
	"time"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest defines the body of a payment.
type CreatePaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Note   string          `json:"note" binding:"max=500"`
}

// ListPaymentsParams defines query parameters for listing payments.
type ListPaymentsParams struct {
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID               string          `json:"paymentID"`
	LoanID                  string          `json:"loanID"`
	Amount                  decimal.Decimal `json:"amount"`
	InterestPortion         decimal.Decimal `json:"interestPortion"`
	PrincipalPortion        decimal.Decimal `json:"principalPortion"`
	OutstandingBalanceAfter decimal.Decimal `json:"outstandingBalanceAfter"`
	Note                    string          `json:"note"`
	CreatedAt               time.Time       `json:"createdAt"`
}

// ApplyPaymentResponse is returned after a payment has been allocated.
type ApplyPaymentResponse struct {
	Loan    LoanResponse    `json:"loan"`
	Payment PaymentResponse `json:"payment"`
}

// ListPaymentsResponse wraps a page of payments.
type ListPaymentsResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:               p.PaymentID,
		LoanID:                  p.LoanID,
		Amount:                  p.Amount,
		InterestPortion:         p.InterestPortion,
		PrincipalPortion:        p.PrincipalPortion,
		OutstandingBalanceAfter: p.OutstandingBalanceAfter,
		Note:                    p.Note,
		CreatedAt:               p.CreatedAt,
	}
}

// ToPaymentResponses converts a slice of domain.Payment to []PaymentResponse.
func ToPaymentResponses(payments []domain.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses
}
