package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remitapi/internal/claims"
	"remitapi/internal/model"
	"remitapi/internal/repository"
	"remitapi/internal/storage"
)

// ClaimStore is the versioned review store behind ClaimService.
type ClaimStore interface {
	Get(ctx context.Context, extractionID string) (*model.ExtractionResult, *model.ClaimVersion, error)
	History(ctx context.Context, extractionID string) ([]model.ClaimVersion, error)
	Edit(ctx context.Context, extractionID string, in claims.EditInput) (*claims.EditResult, error)
	Export(ctx context.Context, extractionID, by string) (*claims.ExportResult, error)
}

var _ ClaimStore = (*claims.Store)(nil)

// ClaimHistory is every version of one claim, oldest first.
type ClaimHistory struct {
	Extraction model.ExtractionResult `json:"extraction"`
	Versions   []model.ClaimVersion   `json:"versions"`
}

// EditRequest is an operator action against a claim.
type EditRequest struct {
	Mode      string
	Fields    any
	UpdatedBy string
}

// EditResponse is the claim head after an accepted edit.
type EditResponse struct {
	ExtractionID string             `json:"extraction_id"`
	Version      model.ClaimVersion `json:"version"`
	Status       model.ClaimStatus  `json:"status"`
	Applied      []string           `json:"applied_fields"`
}

// ExportResponse points at an exported claim file.
type ExportResponse struct {
	Export      model.ClaimExport `json:"export"`
	Created     bool              `json:"created"`
	DownloadURL string            `json:"download_url"`
}

// ClaimService defines the review use cases for extracted claims.
type ClaimService interface {
	// Versions returns the claim's version history.
	Versions(ctx context.Context, extractionID string) (*ClaimHistory, error)

	// Edit applies a draft, confirm or exception action. State machine
	// rejections are returned as claims.ErrInvalidTransition.
	Edit(ctx context.Context, extractionID string, req EditRequest) (*EditResponse, error)

	// Export generates the claim's export once and returns a download URL.
	Export(ctx context.Context, extractionID, by string) (*ExportResponse, error)
}

type claimService struct {
	claims     ClaimStore
	store      storage.Storage
	presignTTL time.Duration
}

func NewClaimService(store ClaimStore, objects storage.Storage, presignTTL time.Duration) ClaimService {
	if presignTTL <= 0 {
		presignTTL = 5 * time.Minute
	}
	return &claimService{claims: store, store: objects, presignTTL: presignTTL}
}

func (s *claimService) Versions(ctx context.Context, extractionID string) (*ClaimHistory, error) {
	if extractionID == "" {
		return nil, ErrIDRequired
	}
	ext, _, err := s.claims.Get(ctx, extractionID)
	if err != nil {
		return nil, notFound(err)
	}
	versions, err := s.claims.History(ctx, extractionID)
	if err != nil {
		return nil, notFound(err)
	}
	return &ClaimHistory{Extraction: *ext, Versions: versions}, nil
}

func (s *claimService) Edit(ctx context.Context, extractionID string, req EditRequest) (*EditResponse, error) {
	if extractionID == "" {
		return nil, ErrIDRequired
	}
	res, err := s.claims.Edit(ctx, extractionID, claims.EditInput{
		Mode:      claims.Mode(req.Mode),
		Fields:    req.Fields,
		UpdatedBy: req.UpdatedBy,
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &EditResponse{
		ExtractionID: extractionID,
		Version:      res.Version,
		Status:       res.Status,
		Applied:      res.Applied,
	}, nil
}

func (s *claimService) Export(ctx context.Context, extractionID, by string) (*ExportResponse, error) {
	if extractionID == "" {
		return nil, ErrIDRequired
	}
	res, err := s.claims.Export(ctx, extractionID, by)
	if err != nil {
		return nil, notFound(err)
	}
	url, err := s.store.PresignGet(ctx, res.Export.StorageRef, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}
	return &ExportResponse{Export: res.Export, Created: res.Created, DownloadURL: url}, nil
}

// notFound folds the repository's missing-row error into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
