package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"remitapi/internal/scheduler"
	"remitapi/internal/service"
)

type MockOpsService struct {
	mock.Mock
}

func (m *MockOpsService) SchedulerStatus(ctx context.Context) (*scheduler.Status, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduler.Status), args.Error(1)
}

func (m *MockOpsService) Jobs(ctx context.Context) (*service.JobListResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.JobListResult), args.Error(1)
}

func (m *MockOpsService) ClearJob(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}
