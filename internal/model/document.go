package model

import "time"

// DocumentStatus is the pipeline position of an uploaded document.
type DocumentStatus string

const (
	// DocumentProcessing is the only intermediate status; the scheduler scans for it.
	DocumentProcessing    DocumentStatus = "ai_processing"
	DocumentNeedTemplate  DocumentStatus = "need_template"
	DocumentPendingReview DocumentStatus = "pending_review"
	DocumentUnreadable    DocumentStatus = "unreadable"
	DocumentException     DocumentStatus = "exception"
	DocumentGenerated     DocumentStatus = "generated"
)

// Valid reports whether s is a known document status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentProcessing, DocumentNeedTemplate, DocumentPendingReview,
		DocumentUnreadable, DocumentException, DocumentGenerated:
		return true
	}
	return false
}

// Document represents one uploaded remittance file.
// Content is immutable; only status and detection fields move after intake.
type Document struct {
	ID                        string         `json:"id"`
	OrgID                     string         `json:"org_id"`
	ContentHash               string         `json:"content_hash"`
	Filename                  string         `json:"filename"`
	StorageRef                string         `json:"storage_ref"`
	MimeType                  string         `json:"mime_type"`
	SizeBytes                 int64          `json:"size_bytes"`
	Status                    DocumentStatus `json:"status"`
	StatusReason              string         `json:"status_reason,omitempty"`
	DetectedPayerID           *string        `json:"detected_payer_id"`
	DetectedTemplateVersionID *string        `json:"detected_template_version_id"`
	UploadedBy                string         `json:"uploaded_by,omitempty"`
	UploadedAt                time.Time      `json:"uploaded_at"`
	UpdatedAt                 time.Time      `json:"updated_at"`
}
