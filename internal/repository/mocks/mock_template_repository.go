package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"remitapi/internal/model"
)

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Create(ctx context.Context, t *model.Template, schema model.TemplateSchema) (*model.Template, *model.TemplateVersion, error) {
	args := m.Called(ctx, t, schema)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Template), args.Get(1).(*model.TemplateVersion), args.Error(2)
}

func (m *MockTemplateRepository) AddVersion(ctx context.Context, templateID string, schema model.TemplateSchema, createdBy string) (*model.TemplateVersion, error) {
	args := m.Called(ctx, templateID, schema, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TemplateVersion), args.Error(1)
}

func (m *MockTemplateRepository) FindByID(ctx context.Context, id string) (*model.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateRepository) ListByPayer(ctx context.Context, payerID string) ([]model.Template, error) {
	args := m.Called(ctx, payerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Template), args.Error(1)
}

func (m *MockTemplateRepository) ListCandidates(ctx context.Context, payerID string) ([]model.TemplateCandidate, error) {
	args := m.Called(ctx, payerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TemplateCandidate), args.Error(1)
}
