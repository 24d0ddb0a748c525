package repository

import (
	"context"

	"remitapi/internal/model"
)

// PayerRepository persists payers.
type PayerRepository interface {
	// FindByName is an exact, case-sensitive lookup within an org.
	FindByName(ctx context.Context, orgID, name string) (*model.Payer, error)

	// CreateOrGet inserts a payer; if the org already holds the name under the
	// case-insensitive uniqueness guard the stored row is returned instead.
	CreateOrGet(ctx context.Context, p *model.Payer) (*model.Payer, error)

	FindByID(ctx context.Context, id string) (*model.Payer, error)

	// ListByOrg returns every payer of an org ordered by name.
	ListByOrg(ctx context.Context, orgID string) ([]model.Payer, error)
}
