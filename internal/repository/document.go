package repository

import (
	"context"

	"remitapi/internal/model"
)

// DocumentFilter narrows document listings. Empty fields match everything.
type DocumentFilter struct {
	OrgID  string
	Status model.DocumentStatus
}

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record. It returns ErrDuplicate when the
	// (org, content hash) pair is already stored.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByHash returns the document holding a content hash within an org or ErrNotFound.
	FindByHash(ctx context.Context, orgID, contentHash string) (*model.Document, error)

	// List returns a filtered page of documents and the total count.
	List(ctx context.Context, f DocumentFilter, pq PageQuery) (*PageResult[model.Document], error)

	// ListByStatus returns up to limit documents in status, oldest upload first,
	// skipping the ids in exclude.
	ListByStatus(ctx context.Context, status model.DocumentStatus, limit int, exclude []string) ([]model.Document, error)

	// UpdateStatus moves a document to status with a reason.
	UpdateStatus(ctx context.Context, id string, status model.DocumentStatus, reason string) error

	// UpdateOutcome records the pipeline's status and detection results in one write.
	UpdateOutcome(ctx context.Context, id string, status model.DocumentStatus, reason string, payerID, templateVersionID *string) error

	// RequeueNeedTemplate moves need_template documents holding a parked block
	// of the payer back to processing.
	RequeueNeedTemplate(ctx context.Context, payerID string) (int64, error)
}
