package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"remitapi/internal/model"
)

type MockPayerRepository struct {
	mock.Mock
}

func (m *MockPayerRepository) FindByName(ctx context.Context, orgID, name string) (*model.Payer, error) {
	args := m.Called(ctx, orgID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payer), args.Error(1)
}

func (m *MockPayerRepository) CreateOrGet(ctx context.Context, p *model.Payer) (*model.Payer, error) {
	args := m.Called(ctx, p)
	if f, ok := args.Get(0).(func(context.Context, *model.Payer) *model.Payer); ok {
		return f(ctx, p), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payer), args.Error(1)
}

func (m *MockPayerRepository) FindByID(ctx context.Context, id string) (*model.Payer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payer), args.Error(1)
}

func (m *MockPayerRepository) ListByOrg(ctx context.Context, orgID string) ([]model.Payer, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Payer), args.Error(1)
}
