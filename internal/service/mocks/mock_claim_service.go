package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"remitapi/internal/service"
)

type MockClaimService struct {
	mock.Mock
}

func (m *MockClaimService) Versions(ctx context.Context, extractionID string) (*service.ClaimHistory, error) {
	args := m.Called(ctx, extractionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ClaimHistory), args.Error(1)
}

func (m *MockClaimService) Edit(ctx context.Context, extractionID string, req service.EditRequest) (*service.EditResponse, error) {
	args := m.Called(ctx, extractionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EditResponse), args.Error(1)
}

func (m *MockClaimService) Export(ctx context.Context, extractionID, by string) (*service.ExportResponse, error) {
	args := m.Called(ctx, extractionID, by)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportResponse), args.Error(1)
}
