package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"remitapi/internal/model"
	"remitapi/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if f, ok := args.Get(0).(func(context.Context, *model.Document) *model.Document); ok {
		return f(ctx, doc), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByHash(ctx context.Context, orgID, contentHash string) (*model.Document, error) {
	args := m.Called(ctx, orgID, contentHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Document]), args.Error(1)
}

func (m *MockDocumentRepository) ListByStatus(ctx context.Context, status model.DocumentStatus, limit int, exclude []string) ([]model.Document, error) {
	args := m.Called(ctx, status, limit, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) UpdateStatus(ctx context.Context, id string, status model.DocumentStatus, reason string) error {
	args := m.Called(ctx, id, status, reason)
	return args.Error(0)
}

func (m *MockDocumentRepository) UpdateOutcome(ctx context.Context, id string, status model.DocumentStatus, reason string, payerID, templateVersionID *string) error {
	args := m.Called(ctx, id, status, reason, payerID, templateVersionID)
	return args.Error(0)
}

func (m *MockDocumentRepository) RequeueNeedTemplate(ctx context.Context, payerID string) (int64, error) {
	args := m.Called(ctx, payerID)
	return args.Get(0).(int64), args.Error(1)
}
