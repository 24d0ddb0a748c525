package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"remitapi/internal/model"
	"remitapi/internal/service"
)

type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) Create(ctx context.Context, payerID string, req service.CreateTemplateRequest) (*service.TemplateResult, error) {
	args := m.Called(ctx, payerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TemplateResult), args.Error(1)
}

func (m *MockTemplateService) AddVersion(ctx context.Context, templateID string, schema model.TemplateSchema, createdBy string) (*model.TemplateVersion, error) {
	args := m.Called(ctx, templateID, schema, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TemplateVersion), args.Error(1)
}

func (m *MockTemplateService) List(ctx context.Context, payerID string) ([]model.Template, error) {
	args := m.Called(ctx, payerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Template), args.Error(1)
}

func (m *MockTemplateService) Payers(ctx context.Context, orgID string) ([]model.Payer, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Payer), args.Error(1)
}
