package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"remitapi/internal/model"
	"remitapi/internal/repository"
)

type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) CreateExtraction(ctx context.Context, ext *model.ExtractionResult, first *model.ClaimVersion) error {
	args := m.Called(ctx, ext, first)
	return args.Error(0)
}

func (m *MockClaimRepository) FindExtraction(ctx context.Context, id string) (*model.ExtractionResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExtractionResult), args.Error(1)
}

func (m *MockClaimRepository) ListExtractions(ctx context.Context, documentID string) ([]model.ExtractionResult, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ExtractionResult), args.Error(1)
}

func (m *MockClaimRepository) ListByTemplate(ctx context.Context, templateID string) ([]model.ExtractionResult, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ExtractionResult), args.Error(1)
}

func (m *MockClaimRepository) SupersedePlaceholders(ctx context.Context, documentID string) (int64, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClaimRepository) LatestVersion(ctx context.Context, extractionID string) (*model.ClaimVersion, error) {
	args := m.Called(ctx, extractionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClaimVersion), args.Error(1)
}

func (m *MockClaimRepository) LatestVersions(ctx context.Context, documentID string) ([]model.ClaimVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ClaimVersion), args.Error(1)
}

func (m *MockClaimRepository) Versions(ctx context.Context, extractionID string) ([]model.ClaimVersion, error) {
	args := m.Called(ctx, extractionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ClaimVersion), args.Error(1)
}

func (m *MockClaimRepository) Mutate(ctx context.Context, extractionID string, fn repository.MutateFunc) (*model.ClaimVersion, error) {
	args := m.Called(ctx, extractionID, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClaimVersion), args.Error(1)
}

func (m *MockClaimRepository) FindExport(ctx context.Context, extractionID string) (*model.ClaimExport, error) {
	args := m.Called(ctx, extractionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClaimExport), args.Error(1)
}
