package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"remitapi/internal/intake"
	"remitapi/internal/logging"
	"remitapi/internal/model"
	"remitapi/internal/repository"
	"remitapi/internal/storage"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrOrgRequired   = errors.New("org id is required")
	ErrNotFound      = errors.New("not found")
	ErrReaderNil     = errors.New("reader is nil")
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrNotReprocessable is returned when a reprocess is asked of a document
	// outside need_template and exception.
	ErrNotReprocessable = errors.New("document cannot be reprocessed in its status")
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// ClaimSummary pairs an extraction record with the version currently shown to reviewers.
// Latest is nil for blocks that never produced a claim.
type ClaimSummary struct {
	Extraction model.ExtractionResult `json:"extraction"`
	Latest     *model.ClaimVersion    `json:"latest_version"`
}

// DocumentDetail is a document with every claim block the pipeline recorded for it.
type DocumentDetail struct {
	Document model.Document `json:"document"`
	Claims   []ClaimSummary `json:"claims"`
}

// ListFilter narrows a document listing.
type ListFilter struct {
	OrgID  string
	Status string
	Limit  int
	Offset int
}

// UploadInput is one file posted by an operator.
type UploadInput struct {
	Reader     io.Reader
	Filename   string
	OrgID      string
	UploadedBy string
}

// Admitter admits uploads into the pipeline.
type Admitter interface {
	Admit(ctx context.Context, req intake.Request) (*model.Document, error)
}

// Dispatcher starts processing a freshly admitted document without waiting
// for the next scheduler tick. It reports false when the request was dropped.
type Dispatcher interface {
	Trigger(documentID string) bool
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload admits the content through the content-addressed intake. Refusals
	// are returned as *intake.Rejection.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, f ListFilter) (*DocumentListResult, error)

	// Get returns a document with its claims.
	Get(ctx context.Context, id string) (*DocumentDetail, error)

	// FileURL presigns the original upload for reviewers.
	FileURL(ctx context.Context, id string) (string, error)

	// Reprocess sends a parked document back to ai_processing. Accepted
	// claims are kept; parked and failed blocks are extracted again.
	Reprocess(ctx context.Context, id, by string) (*model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	intake     Admitter
	documents  repository.DocumentRepository
	claims     repository.ClaimRepository
	store      storage.Storage
	dispatcher Dispatcher
	presignTTL time.Duration
	logger     *zap.Logger
}

// NewDocumentService constructs a new DocumentService. A nil dispatcher leaves
// new documents for the scheduler's next tick.
func NewDocumentService(
	in Admitter,
	documents repository.DocumentRepository,
	claims repository.ClaimRepository,
	store storage.Storage,
	dispatcher Dispatcher,
	presignTTL time.Duration,
	logger *zap.Logger,
) DocumentService {
	if presignTTL <= 0 {
		presignTTL = 5 * time.Minute
	}
	return &documentService{
		intake:     in,
		documents:  documents,
		claims:     claims,
		store:      store,
		dispatcher: dispatcher,
		presignTTL: presignTTL,
		logger:     logger.With(zap.String("component", "document_service")),
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if in.Reader == nil {
		return nil, ErrReaderNil
	}
	if in.OrgID == "" {
		return nil, ErrOrgRequired
	}
	data, err := io.ReadAll(in.Reader)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	doc, err := s.intake.Admit(ctx, intake.Request{
		Data:       data,
		Filename:   in.Filename,
		OrgID:      in.OrgID,
		UploadedBy: in.UploadedBy,
	})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil && !s.dispatcher.Trigger(doc.ID) {
		logging.For(ctx, s.logger).Info("immediate processing skipped; left for scheduler",
			zap.String("event", "document.trigger_skipped"),
			zap.String("document_id", doc.ID),
		)
	}
	return doc, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, f ListFilter) (*DocumentListResult, error) {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	status := model.DocumentStatus(f.Status)
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}

	res, err := s.documents.List(ctx,
		repository.DocumentFilter{OrgID: f.OrgID, Status: status},
		repository.PageQuery{Limit: f.Limit, Offset: f.Offset},
	)
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID together with its claim blocks in block order.
func (s *documentService) Get(ctx context.Context, id string) (*DocumentDetail, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	exts, err := s.claims.ListExtractions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list extractions: %w", err)
	}
	latest, err := s.claims.LatestVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("latest versions: %w", err)
	}

	byExtraction := make(map[string]model.ClaimVersion, len(latest))
	for _, v := range latest {
		byExtraction[v.ExtractionID] = v
	}
	out := &DocumentDetail{Document: *doc, Claims: make([]ClaimSummary, 0, len(exts))}
	for _, e := range exts {
		sum := ClaimSummary{Extraction: e}
		if v, ok := byExtraction[e.ID]; ok {
			sum.Latest = &v
		}
		out.Claims = append(out.Claims, sum)
	}
	return out, nil
}

func (s *documentService) FileURL(ctx context.Context, id string) (string, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, doc.StorageRef, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign document: %w", err)
	}
	return url, nil
}

func (s *documentService) Reprocess(ctx context.Context, id, by string) (*model.Document, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	switch doc.Status {
	case model.DocumentNeedTemplate, model.DocumentException:
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotReprocessable, doc.Status)
	}

	reason := "reprocess requested"
	if by != "" {
		reason += " by " + by
	}
	if err := s.documents.UpdateStatus(ctx, id, model.DocumentProcessing, reason); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("requeue document: %w", err)
	}
	logging.For(ctx, s.logger).Info("document requeued",
		zap.String("event", "document.reprocess_requested"),
		zap.String("document_id", id),
		zap.String("previous_status", string(doc.Status)),
		zap.String("by", by),
	)
	if s.dispatcher != nil {
		s.dispatcher.Trigger(id)
	}

	doc.Status = model.DocumentProcessing
	doc.StatusReason = reason
	return doc, nil
}

func (s *documentService) find(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}
