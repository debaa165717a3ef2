package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/services"
	"github.com/SscSPs/p2p_loan_tracker/internal/dto"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles payments on a loan. Routes are registered with the loan routes.
type paymentHandler struct {
	allocator   portssvc.PaymentAllocatorSvc
	loanService portssvc.LoanSvcFacade
}

func (h *paymentHandler) applyPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	loan, payment, err := h.allocator.Apply(c.Request.Context(), userID, c.Param("loanID"), req.Amount, req.Note)
	if err != nil {
		respondError(c, err, "Failed to apply payment")
		return
	}
	c.JSON(http.StatusCreated, dto.ApplyPaymentResponse{
		Loan:    dto.ToLoanResponse(loan),
		Payment: dto.ToPaymentResponse(payment),
	})
}

func (h *paymentHandler) listPayments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var params dto.ListPaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.loanService.ListPayments(c.Request.Context(), userID, c.Param("loanID"), params)
	if err != nil {
		respondError(c, err, "Failed to list payments")
		return
	}
	c.JSON(http.StatusOK, resp)
}
