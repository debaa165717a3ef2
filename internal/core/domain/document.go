package domain

import "time"

// DocumentBundle groups the files attached to a loan under one blob prefix.
// Membership is whatever the blob store lists under BlobPrefix.
type DocumentBundle struct {
	BundleID   string `json:"bundleID"`
	LoanID     string `json:"loanID"` // One bundle per loan
	BlobPrefix string `json:"blobPrefix"`
	AuditFields
}

// UploadFile is an in-memory file handed to the document saga.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// DocumentLink is a time-limited read link for one stored document.
type DocumentLink struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
