// Package payer maps free-text payer names onto stable per-organization payer identities.
package payer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"remitapi/internal/model"
	"remitapi/internal/repository"
)

// ErrEmptyName is returned when there is no name to resolve.
var ErrEmptyName = errors.New("payer name is empty")

// Resolver is a get-or-create over the payer store. Names are matched
// exactly; no fuzzy or synonym resolution is attempted.
type Resolver struct {
	payers repository.PayerRepository
	logger *zap.Logger
}

func NewResolver(payers repository.PayerRepository, logger *zap.Logger) *Resolver {
	return &Resolver{payers: payers, logger: logger.With(zap.String("component", "payer"))}
}

// Resolve returns the org's payer called name, creating it on first sighting.
func (r *Resolver) Resolve(ctx context.Context, orgID, name string) (*model.Payer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	p, err := r.payers.FindByName(ctx, orgID, name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find payer: %w", err)
	}

	p, err = r.payers.CreateOrGet(ctx, &model.Payer{
		ID:        uuid.NewString(),
		OrgID:     orgID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create payer: %w", err)
	}
	r.logger.Info("payer resolved",
		zap.String("event", "payer.created"),
		zap.String("org_id", orgID),
		zap.String("payer_id", p.ID),
		zap.String("name", p.Name),
	)
	return p, nil
}

// Hint finds the org's known payer whose name appears in text, ignoring case.
// The longest matching name wins so "Acme Health" beats "Acme". It returns nil
// when no known payer is mentioned.
func (r *Resolver) Hint(ctx context.Context, orgID, text string) (*model.Payer, error) {
	known, err := r.payers.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list payers: %w", err)
	}
	lower := strings.ToLower(text)
	var best *model.Payer
	for i := range known {
		name := strings.ToLower(strings.TrimSpace(known[i].Name))
		if name == "" || !strings.Contains(lower, name) {
			continue
		}
		if best == nil || len(name) > len(strings.TrimSpace(best.Name)) {
			best = &known[i]
		}
	}
	return best, nil
}
