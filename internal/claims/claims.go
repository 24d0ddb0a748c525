// Package claims carries extracted claims through review: versioned edits,
// the review state machine and export.
package claims

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"remitapi/internal/model"
	"remitapi/internal/repository"
	"remitapi/internal/storage"
)

// Mode is the operator action applied by an edit.
type Mode string

const (
	ModeDraft     Mode = "draft"
	ModeConfirm   Mode = "confirm"
	ModeException Mode = "exception"

	modeExport Mode = "export"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrUnknownMode       = errors.New("unknown edit mode")

	errAlreadyExported = errors.New("already exported")
)

// TransitionError is returned when the state machine forbids an action.
type TransitionError struct {
	From model.ClaimStatus
	Mode Mode
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a claim in status %s", e.Mode, e.From)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Renderer turns a claim version into an export file.
type Renderer interface {
	Render(ext model.ExtractionResult, v model.ClaimVersion) ([]byte, error)
	ContentType() string
	Extension() string
}

// EditInput is one operator action. Fields is arbitrary decoded JSON; only
// leaves whose key names a field already in the payload are applied.
type EditInput struct {
	Mode      Mode
	Fields    any
	UpdatedBy string
}

// EditResult is the claim head after an edit.
type EditResult struct {
	Version model.ClaimVersion
	Status  model.ClaimStatus
	Applied []string
}

// ExportResult carries the export record and whether this call produced it.
type ExportResult struct {
	Export  model.ClaimExport
	Created bool
}

type Store struct {
	claims    repository.ClaimRepository
	documents repository.DocumentRepository
	store     storage.Storage
	renderer  Renderer
	logger    *zap.Logger
}

func NewStore(
	claims repository.ClaimRepository,
	documents repository.DocumentRepository,
	store storage.Storage,
	renderer Renderer,
	logger *zap.Logger,
) *Store {
	return &Store{
		claims:    claims,
		documents: documents,
		store:     store,
		renderer:  renderer,
		logger:    logger.With(zap.String("component", "claims")),
	}
}

// Get returns an extraction record with its latest version.
func (s *Store) Get(ctx context.Context, extractionID string) (*model.ExtractionResult, *model.ClaimVersion, error) {
	ext, err := s.claims.FindExtraction(ctx, extractionID)
	if err != nil {
		return nil, nil, err
	}
	v, err := s.claims.LatestVersion(ctx, extractionID)
	if err != nil {
		return nil, nil, err
	}
	return ext, v, nil
}

// History returns every version of a claim oldest first.
func (s *Store) History(ctx context.Context, extractionID string) ([]model.ClaimVersion, error) {
	if _, err := s.claims.FindExtraction(ctx, extractionID); err != nil {
		return nil, err
	}
	return s.claims.Versions(ctx, extractionID)
}

// Edit applies an operator action. Every action requires pending_review.
// Draft and confirm write the next minor version with the edits merged into
// the latest payload; exception only moves the status.
func (s *Store) Edit(ctx context.Context, extractionID string, in EditInput) (*EditResult, error) {
	switch in.Mode {
	case ModeDraft, ModeConfirm, ModeException:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, in.Mode)
	}

	var applied []string
	var status model.ClaimStatus
	head, err := s.claims.Mutate(ctx, extractionID, func(ext model.ExtractionResult, latest model.ClaimVersion) (repository.Mutation, error) {
		if ext.Status != model.ClaimPendingReview {
			return repository.Mutation{}, &TransitionError{From: ext.Status, Mode: in.Mode}
		}
		if in.Mode == ModeException {
			status = model.ClaimException
			return repository.Mutation{Status: status}, nil
		}

		status = model.ClaimPendingReview
		if in.Mode == ModeConfirm {
			status = model.ClaimApproved
		}
		payload := latest.Payload.Clone()
		applied = applyEdits(&payload, in.Fields)
		return repository.Mutation{
			Status:  status,
			Version: nextVersion(latest, payload, status, in.UpdatedBy),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("claim edited",
		zap.String("event", "claim.edited"),
		zap.String("extraction_id", extractionID),
		zap.String("mode", string(in.Mode)),
		zap.String("version", head.Version.String()),
		zap.String("status", string(status)),
		zap.Int("fields_applied", len(applied)),
	)
	return &EditResult{Version: *head, Status: status, Applied: applied}, nil
}

// Export renders an approved claim, stores it and moves the claim to
// generated. A claim that already has an export returns that export.
func (s *Store) Export(ctx context.Context, extractionID, by string) (*ExportResult, error) {
	if x, err := s.claims.FindExport(ctx, extractionID); err == nil {
		return &ExportResult{Export: *x}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find export: %w", err)
	}

	ext, err := s.claims.FindExtraction(ctx, extractionID)
	if err != nil {
		return nil, err
	}
	if ext.Status != model.ClaimApproved {
		return nil, &TransitionError{From: ext.Status, Mode: modeExport}
	}
	latest, err := s.claims.LatestVersion(ctx, extractionID)
	if err != nil {
		return nil, err
	}

	data, err := s.renderer.Render(*ext, *latest)
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	key := storage.ExportKey(extractionID, s.renderer.Extension())
	if _, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: s.renderer.ContentType(),
	}); err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}

	var record *model.ClaimExport
	_, err = s.claims.Mutate(ctx, extractionID, func(ext model.ExtractionResult, latest model.ClaimVersion) (repository.Mutation, error) {
		if ext.Status == model.ClaimGenerated {
			return repository.Mutation{}, errAlreadyExported
		}
		if ext.Status != model.ClaimApproved {
			return repository.Mutation{}, &TransitionError{From: ext.Status, Mode: modeExport}
		}
		next := nextVersion(latest, latest.Payload.Clone(), model.ClaimGenerated, by)
		record = &model.ClaimExport{
			ID:           uuid.NewString(),
			ExtractionID: ext.ID,
			DocumentID:   ext.DocumentID,
			Version:      next.Version.String(),
			StorageRef:   key,
			CreatedBy:    by,
			CreatedAt:    next.CreatedAt,
		}
		return repository.Mutation{Status: model.ClaimGenerated, Version: next, Export: record}, nil
	})
	if errors.Is(err, errAlreadyExported) || errors.Is(err, repository.ErrDuplicate) {
		x, ferr := s.claims.FindExport(ctx, extractionID)
		if ferr != nil {
			return nil, fmt.Errorf("find export: %w", ferr)
		}
		return &ExportResult{Export: *x}, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("claim exported",
		zap.String("event", "claim.exported"),
		zap.String("extraction_id", extractionID),
		zap.String("version", record.Version),
		zap.String("storage_ref", key),
	)
	if err := s.rollUpDocument(ctx, ext.DocumentID); err != nil {
		s.logger.Error("document roll-up failed",
			zap.String("event", "claim.rollup_failed"),
			zap.String("document_id", ext.DocumentID),
			zap.Error(err),
		)
	}
	return &ExportResult{Export: *record, Created: true}, nil
}

// rollUpDocument marks the document generated once every accepted claim is
// and no block is still parked waiting for a template.
func (s *Store) rollUpDocument(ctx context.Context, documentID string) error {
	exts, err := s.claims.ListExtractions(ctx, documentID)
	if err != nil {
		return err
	}
	accepted := 0
	for _, e := range exts {
		if e.Status == model.ClaimNeedTemplate {
			return nil
		}
		if !e.Status.Accepted() {
			continue
		}
		if e.Status != model.ClaimGenerated {
			return nil
		}
		accepted++
	}
	if accepted == 0 {
		return nil
	}
	return s.documents.UpdateStatus(ctx, documentID, model.DocumentGenerated, "")
}

func applyEdits(p *model.ClaimPayload, fields any) []string {
	applied := make([]string, 0)
	for k, v := range Flatten(fields) {
		if p.Set(k, v) {
			applied = append(applied, model.NormalizeKey(k))
		}
	}
	slices.Sort(applied)
	return applied
}

func nextVersion(latest model.ClaimVersion, payload model.ClaimPayload, status model.ClaimStatus, by string) *model.ClaimVersion {
	return &model.ClaimVersion{
		ID:           uuid.NewString(),
		ExtractionID: latest.ExtractionID,
		DocumentID:   latest.DocumentID,
		Version:      latest.Version.NextMinor(),
		Payload:      payload,
		Status:       status,
		UpdatedBy:    strings.TrimSpace(by),
		CreatedAt:    time.Now().UTC(),
	}
}
