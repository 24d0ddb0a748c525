package service

import (
	"context"
	"errors"

	"remitapi/internal/registry"
	"remitapi/internal/scheduler"
)

// JobControl is the operator surface of the reprocessing scheduler.
type JobControl interface {
	Status(ctx context.Context) (scheduler.Status, error)
	Jobs(ctx context.Context) ([]registry.Entry, error)
	ClearJob(ctx context.Context, documentID string) error
}

var _ JobControl = (*scheduler.Scheduler)(nil)

// JobListResult lists in-flight and failed registry entries.
type JobListResult struct {
	Items []registry.Entry `json:"data"`
	Total int              `json:"total"`
}

// OpsService exposes scheduler state to operators.
type OpsService interface {
	SchedulerStatus(ctx context.Context) (*scheduler.Status, error)
	Jobs(ctx context.Context) (*JobListResult, error)
	// ClearJob releases a registry entry, typically a failed one, so the
	// document is admitted again on the next tick.
	ClearJob(ctx context.Context, documentID string) error
}

type opsService struct {
	jobs JobControl
}

func NewOpsService(jobs JobControl) OpsService {
	return &opsService{jobs: jobs}
}

func (s *opsService) SchedulerStatus(ctx context.Context) (*scheduler.Status, error) {
	st, err := s.jobs.Status(ctx)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *opsService) Jobs(ctx context.Context) (*JobListResult, error) {
	entries, err := s.jobs.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	return &JobListResult{Items: entries, Total: len(entries)}, nil
}

func (s *opsService) ClearJob(ctx context.Context, documentID string) error {
	if documentID == "" {
		return ErrIDRequired
	}
	if err := s.jobs.ClearJob(ctx, documentID); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
