package dto

import (
	"time"

	"github.com/SscSPs/p2p_loan_tracker/internal/core/domain"
)

// DocumentLinkResponse is a signed, expiring link to one loan document.
type DocumentLinkResponse struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ListDocumentsResponse wraps the documents of a loan.
type ListDocumentsResponse struct {
	Documents []DocumentLinkResponse `json:"documents"`
}

// ToListDocumentsResponse converts domain links to the response DTO.
func ToListDocumentsResponse(links []domain.DocumentLink) ListDocumentsResponse {
	docs := make([]DocumentLinkResponse, len(links))
	for i, l := range links {
		docs[i] = DocumentLinkResponse{Name: l.Name, URL: l.URL, ExpiresAt: l.ExpiresAt}
	}
	return ListDocumentsResponse{Documents: docs}
}
