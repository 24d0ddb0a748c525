package repository

import (
	"context"

	"remitapi/internal/model"
)

// Mutation is what a MutateFunc asks the store to persist.
// A nil Version leaves the history untouched; a nil Export writes no export row.
type Mutation struct {
	Status  model.ClaimStatus
	Version *model.ClaimVersion
	Export  *model.ClaimExport
}

// MutateFunc decides a mutation from the locked extraction record and its latest version.
type MutateFunc func(ext model.ExtractionResult, latest model.ClaimVersion) (Mutation, error)

// ClaimRepository persists extraction results, claim versions and exports.
type ClaimRepository interface {
	// CreateExtraction stores a block's extraction record and, when first is
	// non-nil, its initial version, atomically.
	CreateExtraction(ctx context.Context, ext *model.ExtractionResult, first *model.ClaimVersion) error

	FindExtraction(ctx context.Context, id string) (*model.ExtractionResult, error)

	// ListExtractions returns a document's extraction records ordered by block index.
	ListExtractions(ctx context.Context, documentID string) ([]model.ExtractionResult, error)

	// ListByTemplate returns extraction records matched to a template.
	ListByTemplate(ctx context.Context, templateID string) ([]model.ExtractionResult, error)

	// SupersedePlaceholders marks a document's need_template and failed records superseded.
	SupersedePlaceholders(ctx context.Context, documentID string) (int64, error)

	// LatestVersion returns the newest version of an extraction or ErrNotFound.
	LatestVersion(ctx context.Context, extractionID string) (*model.ClaimVersion, error)

	// LatestVersions returns the newest version of every extraction of a document.
	LatestVersions(ctx context.Context, documentID string) ([]model.ClaimVersion, error)

	// Versions returns an extraction's history oldest first.
	Versions(ctx context.Context, extractionID string) ([]model.ClaimVersion, error)

	// Mutate locks the extraction record, hands it and its latest version to fn
	// and persists the returned mutation in the same transaction. Writers for
	// the same extraction are serialized.
	Mutate(ctx context.Context, extractionID string, fn MutateFunc) (*model.ClaimVersion, error)

	FindExport(ctx context.Context, extractionID string) (*model.ClaimExport, error)
}
