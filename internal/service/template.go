package service

import (
	"context"

	"remitapi/internal/model"
	"remitapi/internal/repository"
	"remitapi/internal/template"
)

// TemplateRegistrar registers templates and versions for payers.
type TemplateRegistrar interface {
	Register(ctx context.Context, in template.RegisterInput) (*model.Template, *model.TemplateVersion, error)
	AddVersion(ctx context.Context, templateID string, schema model.TemplateSchema, createdBy string) (*model.TemplateVersion, error)
	List(ctx context.Context, payerID string) ([]model.Template, error)
}

var _ TemplateRegistrar = (*template.Service)(nil)

// CreateTemplateRequest is the body of a template registration.
type CreateTemplateRequest struct {
	Name      string               `json:"name"`
	Schema    model.TemplateSchema `json:"schema"`
	CreatedBy string               `json:"created_by"`
}

// TemplateResult is a template together with one of its versions.
type TemplateResult struct {
	Template model.Template        `json:"template"`
	Version  model.TemplateVersion `json:"version"`
}

// TemplateService defines the template management use cases.
type TemplateService interface {
	// Create registers a template for a payer. Invalid schemas are returned as template.ErrInvalidSchema.
	Create(ctx context.Context, payerID string, req CreateTemplateRequest) (*TemplateResult, error)

	// AddVersion appends a version that becomes the template's current one.
	AddVersion(ctx context.Context, templateID string, schema model.TemplateSchema, createdBy string) (*model.TemplateVersion, error)

	// List returns a payer's templates.
	List(ctx context.Context, payerID string) ([]model.Template, error)

	// Payers returns the payers known to an organization.
	Payers(ctx context.Context, orgID string) ([]model.Payer, error)
}

type templateService struct {
	registrar TemplateRegistrar
	payers    repository.PayerRepository
}

func NewTemplateService(registrar TemplateRegistrar, payers repository.PayerRepository) TemplateService {
	return &templateService{registrar: registrar, payers: payers}
}

func (s *templateService) Create(ctx context.Context, payerID string, req CreateTemplateRequest) (*TemplateResult, error) {
	if payerID == "" {
		return nil, ErrIDRequired
	}
	t, v, err := s.registrar.Register(ctx, template.RegisterInput{
		PayerID:   payerID,
		Name:      req.Name,
		Schema:    req.Schema,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &TemplateResult{Template: *t, Version: *v}, nil
}

func (s *templateService) AddVersion(ctx context.Context, templateID string, schema model.TemplateSchema, createdBy string) (*model.TemplateVersion, error) {
	if templateID == "" {
		return nil, ErrIDRequired
	}
	v, err := s.registrar.AddVersion(ctx, templateID, schema, createdBy)
	if err != nil {
		return nil, notFound(err)
	}
	return v, nil
}

func (s *templateService) List(ctx context.Context, payerID string) ([]model.Template, error) {
	if payerID == "" {
		return nil, ErrIDRequired
	}
	ts, err := s.registrar.List(ctx, payerID)
	if err != nil {
		return nil, notFound(err)
	}
	return ts, nil
}

func (s *templateService) Payers(ctx context.Context, orgID string) ([]model.Payer, error) {
	if orgID == "" {
		return nil, ErrOrgRequired
	}
	return s.payers.ListByOrg(ctx, orgID)
}
