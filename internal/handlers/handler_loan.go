package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/SscSPs/p2p_loan_tracker/internal/apperrors"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/p2p_loan_tracker/internal/core/ports/services"
	"github.com/SscSPs/p2p_loan_tracker/internal/dto"
	"github.com/SscSPs/p2p_loan_tracker/internal/middleware"
	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for the loan fields and part headers.
const multipartOverhead = 1 << 20

// UploadLimits bounds the files accepted when a loan is created.
type UploadLimits struct {
	MaxFiles int
	MaxBytes int64 // per file
}

// loanHandler handles HTTP requests related to loans and their documents.
type loanHandler struct {
	loanService  portssvc.LoanSvcFacade
	documentSaga portssvc.DocumentSagaSvc
	limits       UploadLimits
}

func registerLoanRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer, limits UploadLimits) {
	h := &loanHandler{
		loanService:  services.Loan,
		documentSaga: services.Documents,
		limits:       limits,
	}
	p := &paymentHandler{allocator: services.Payment, loanService: services.Loan}

	loans := rg.Group("/loans")
	{
		loans.POST("", h.createLoan)
		loans.GET("", h.listLoans)
		loans.GET("/:loanID", h.getLoan)
		loans.DELETE("/:loanID", h.deleteLoan)
		loans.GET("/:loanID/documents", h.listDocuments)
		loans.POST("/:loanID/payments", p.applyPayment)
		loans.GET("/:loanID/payments", p.listPayments)
	}
}

// createLoan accepts multipart/form-data: the loan fields plus up to MaxFiles parts named "files".
func (h *loanHandler) createLoan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	bodyLimit := int64(h.limits.MaxFiles)*h.limits.MaxBytes + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	var req dto.CreateLoanRequest
	if err := c.ShouldBind(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Request body too large"})
			return
		}
		respondBindError(c, err)
		return
	}

	files, err := h.readUploads(c)
	if err != nil {
		respondError(c, err, "Rejected loan uploads")
		return
	}

	logger.Info("Received request to create loan", slog.Int("files", len(files)))
	loan, err := h.documentSaga.CreateWithDocuments(c.Request.Context(), userID, req, files)
	if err != nil {
		respondError(c, err, "Failed to create loan")
		return
	}
	c.JSON(http.StatusCreated, dto.ToLoanResponse(loan))
}

// readUploads loads the "files" parts into memory after checking count and size.
func (h *loanHandler) readUploads(c *gin.Context) ([]domain.UploadFile, error) {
	form := c.Request.MultipartForm
	if form == nil || len(form.File["files"]) == 0 {
		return nil, nil
	}
	headers := form.File["files"]
	if len(headers) > h.limits.MaxFiles {
		return nil, apperrors.NewValidationError(fmt.Sprintf("at most %d files may be attached to a loan", h.limits.MaxFiles))
	}

	files := make([]domain.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > h.limits.MaxBytes {
			return nil, apperrors.NewValidationError(fmt.Sprintf("file %q exceeds the %d byte limit", fh.Filename, h.limits.MaxBytes))
		}
		data, err := readFileHeader(fh)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("could not read file %q", fh.Filename))
		}
		files = append(files, domain.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *loanHandler) listLoans(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var params dto.ListLoansParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	loans, err := h.loanService.ListLoans(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, err, "Failed to list loans")
		return
	}
	c.JSON(http.StatusOK, dto.ToListLoansResponse(loans))
}

func (h *loanHandler) getLoan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	loan, err := h.loanService.GetLoan(c.Request.Context(), userID, c.Param("loanID"))
	if err != nil {
		respondError(c, err, "Failed to get loan")
		return
	}
	c.JSON(http.StatusOK, dto.ToLoanResponse(loan))
}

func (h *loanHandler) deleteLoan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	loanID := c.Param("loanID")

	if err := h.documentSaga.DeleteLoan(c.Request.Context(), userID, loanID); err != nil {
		respondError(c, err, "Failed to delete loan")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Loan deleted", slog.String("loan_id", loanID))
	c.Status(http.StatusNoContent)
}

func (h *loanHandler) listDocuments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	links, err := h.loanService.ListDocumentLinks(c.Request.Context(), userID, c.Param("loanID"))
	if err != nil {
		respondError(c, err, "Failed to list loan documents")
		return
	}
	c.JSON(http.StatusOK, dto.ToListDocumentsResponse(links))
}
