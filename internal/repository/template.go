package repository

import (
	"context"

	"remitapi/internal/model"
)

// TemplateRepository persists templates and their versions.
type TemplateRepository interface {
	// Create stores a template with its first version and makes that version current.
	Create(ctx context.Context, t *model.Template, schema model.TemplateSchema) (*model.Template, *model.TemplateVersion, error)

	// AddVersion appends version max+1 to a template and makes it current.
	AddVersion(ctx context.Context, templateID string, schema model.TemplateSchema, createdBy string) (*model.TemplateVersion, error)

	FindByID(ctx context.Context, id string) (*model.Template, error)

	ListByPayer(ctx context.Context, payerID string) ([]model.Template, error)

	// ListCandidates returns every version of every template owned by a payer.
	ListCandidates(ctx context.Context, payerID string) ([]model.TemplateCandidate, error)
}
