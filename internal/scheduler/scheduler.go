// Package scheduler periodically drives parked documents through the pipeline.
// Ownership of a document is recorded in the shared in-flight registry so
// overlapping ticks and processes never work the same document twice.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"remitapi/internal/config"
	"remitapi/internal/metrics"
	"remitapi/internal/model"
	"remitapi/internal/pipeline"
	"remitapi/internal/registry"
	"remitapi/internal/repository"
)

// ErrJobNotFound is returned when clearing an id the registry does not hold.
var ErrJobNotFound = errors.New("job not found")

// Processor runs the pipeline for one document.
type Processor interface {
	Process(ctx context.Context, documentID string) (*pipeline.Outcome, error)
}

// Status is the operator view of the scheduler.
type Status struct {
	Enabled   bool          `json:"enabled"`
	Running   bool          `json:"running"`
	Interval  time.Duration `json:"interval"`
	LastTick  *time.Time    `json:"last_tick"`
	LastBatch int           `json:"last_batch"`
	Processed int64         `json:"processed"`
	Failed    int64         `json:"failed"`
	InFlight  int           `json:"in_flight"`
}

// TickResult counts what one tick did.
type TickResult struct {
	Scanned   int
	Succeeded int
	Failed    int
	Skipped   int
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithOwner(owner string) Option {
	return func(s *Scheduler) { s.owner = owner }
}

type Scheduler struct {
	documents repository.DocumentRepository
	reg       registry.Registry
	proc      Processor
	cfg       config.SchedulerConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
	owner     string
	triggers  chan string

	processed atomic.Int64
	failed    atomic.Int64
	running   atomic.Bool

	mu        sync.Mutex
	lastTick  time.Time
	lastBatch int
}

func New(
	documents repository.DocumentRepository,
	reg registry.Registry,
	proc Processor,
	cfg config.SchedulerConfig,
	logger *zap.Logger,
	opts ...Option,
) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	host, _ := os.Hostname()
	s := &Scheduler{
		documents: documents,
		reg:       reg,
		proc:      proc,
		cfg:       cfg,
		logger:    logger.With(zap.String("component", "scheduler")),
		now:       time.Now,
		owner:     fmt.Sprintf("%s/%s", host, uuid.NewString()[:8]),
		triggers:  make(chan string, 64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks immediately and then every interval until ctx ends. Documents
// passed to Trigger are processed between ticks.
func (s *Scheduler) Run(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	var triggered errgroup.Group
	triggered.SetLimit(s.cfg.Workers)
	defer func() { _ = triggered.Wait() }()

	s.logger.Info("scheduler started",
		zap.String("event", "scheduler.start"),
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("batch_size", s.cfg.BatchSize),
		zap.Int("workers", s.cfg.Workers),
		zap.String("owner", s.owner),
	)
	s.tickLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", zap.String("event", "scheduler.stop"))
			return
		case <-ticker.C:
			s.tickLogged(ctx)
		case id := <-s.triggers:
			// a full pool leaves the document to the next tick
			triggered.TryGo(func() error {
				s.runOne(ctx, id)
				return nil
			})
		}
	}
}

// Trigger asks a running scheduler to process documentID soon. It reports
// false when the request was dropped; the document is then picked up by a
// later tick.
func (s *Scheduler) Trigger(documentID string) bool {
	if !s.running.Load() {
		return false
	}
	select {
	case s.triggers <- documentID:
		return true
	default:
		return false
	}
}

func (s *Scheduler) tickLogged(ctx context.Context) {
	res, err := s.Tick(ctx)
	if err != nil {
		s.logger.Error("scheduler tick failed", zap.String("event", "scheduler.tick_failed"), zap.Error(err))
		return
	}
	s.logger.Info("scheduler tick",
		zap.String("event", "scheduler.tick"),
		zap.Int("scanned", res.Scanned),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
	)
}

// Tick processes one batch of ai_processing documents, oldest first. A
// document's failure is recorded in the registry and never aborts the batch.
// Documents whose registry entry admit would refuse are left out of the scan,
// so exhausted failures cannot fill the batch.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	entries, err := s.reg.List(ctx, registry.NamespaceJobs)
	if err != nil {
		return TickResult{}, eris.Wrap(err, "list job entries")
	}
	now := s.now().UTC()
	exclude := make([]string, 0, len(entries))
	for _, e := range entries {
		if s.held(e, now) {
			exclude = append(exclude, e.ID)
		}
	}

	docs, err := s.documents.ListByStatus(ctx, model.DocumentProcessing, s.cfg.BatchSize, exclude)
	if err != nil {
		return TickResult{}, eris.Wrap(err, "list processing documents")
	}

	var succeeded, failed, skipped atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for _, d := range docs {
		g.Go(func() error {
			switch s.runOne(ctx, d.ID) {
			case outcomeSucceeded:
				succeeded.Add(1)
			case outcomeFailed:
				failed.Add(1)
			default:
				skipped.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	s.lastTick = s.now()
	s.lastBatch = len(docs)
	s.mu.Unlock()
	if n, err := s.reg.Count(ctx, registry.NamespaceJobs); err == nil {
		s.metrics.SetInflight(int64(n))
	}

	return TickResult{
		Scanned:   len(docs),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Skipped:   int(skipped.Load()),
	}, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSucceeded
	outcomeFailed
)

func (s *Scheduler) runOne(ctx context.Context, documentID string) outcome {
	entry, ok, err := s.admit(ctx, documentID)
	if err != nil {
		s.logger.Error("job admission failed",
			zap.String("event", "scheduler.admit_failed"),
			zap.String("document_id", documentID),
			zap.Error(err),
		)
		return outcomeSkipped
	}
	if !ok {
		return outcomeSkipped
	}

	jctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	_, err = s.proc.Process(jctx, documentID)
	cancel()

	if err == nil {
		if rerr := s.reg.Remove(ctx, registry.NamespaceJobs, documentID); rerr != nil {
			s.logger.Warn("job entry not removed",
				zap.String("event", "scheduler.remove_failed"),
				zap.String("document_id", documentID),
				zap.Error(rerr),
			)
		}
		s.processed.Add(1)
		s.metrics.DocumentProcessed()
		return outcomeSucceeded
	}

	entry.State = registry.StateFailed
	entry.RetryCount++
	entry.LastRun = s.now().UTC()
	entry.Error = err.Error()
	if perr := s.reg.Put(ctx, registry.NamespaceJobs, entry); perr != nil {
		s.logger.Error("job failure not recorded",
			zap.String("event", "scheduler.record_failed"),
			zap.String("document_id", documentID),
			zap.Error(perr),
		)
	}
	s.failed.Add(1)
	s.metrics.DocumentFailed()
	s.logger.Warn("document processing failed",
		zap.String("event", "scheduler.document_failed"),
		zap.String("document_id", documentID),
		zap.Int("retry_count", entry.RetryCount),
		zap.Error(err),
	)
	return outcomeFailed
}

// admit takes ownership of documentID. A fresh id is added if absent. A
// RUNNING entry older than the job timeout is reclaimed. A FAILED entry is
// retried once the retry delay has passed and retries remain; otherwise it
// stays for an operator to clear.
func (s *Scheduler) admit(ctx context.Context, documentID string) (registry.Entry, bool, error) {
	now := s.now().UTC()
	fresh := registry.Entry{
		ID:        documentID,
		Owner:     s.owner,
		State:     registry.StateRunning,
		LastRun:   now,
		CreatedAt: now,
	}

	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.reg.AddIfAbsent(ctx, registry.NamespaceJobs, fresh)
		if err != nil || ok {
			return fresh, ok, err
		}
		cur, err := s.reg.Get(ctx, registry.NamespaceJobs, documentID)
		if errors.Is(err, registry.ErrNotFound) {
			continue
		}
		if err != nil {
			return fresh, false, err
		}

		if s.held(*cur, now) {
			return fresh, false, nil
		}

		next := *cur
		next.Owner = s.owner
		next.State = registry.StateRunning
		next.LastRun = now
		next.Error = ""
		ok, err = s.reg.Swap(ctx, registry.NamespaceJobs, *cur, next)
		if err != nil || !ok {
			return next, false, err
		}
		s.logger.Info("job reclaimed",
			zap.String("event", "scheduler.reclaimed"),
			zap.String("document_id", documentID),
			zap.String("previous_state", string(cur.State)),
			zap.String("previous_owner", cur.Owner),
			zap.Int("retry_count", cur.RetryCount),
		)
		return next, true, nil
	}
	return fresh, false, nil
}

// held reports whether e keeps its document from being admitted at now: a
// live RUNNING owner, or a FAILED entry still in its retry delay or out of
// retries.
func (s *Scheduler) held(e registry.Entry, now time.Time) bool {
	age := now.Sub(e.LastRun)
	switch e.State {
	case registry.StateRunning:
		return age <= s.cfg.JobTimeout
	case registry.StateFailed:
		return e.RetryCount >= s.cfg.MaxRetries || age < s.cfg.RetryDelay
	}
	return false
}

// Status reports counters and the registry's in-flight count.
func (s *Scheduler) Status(ctx context.Context) (Status, error) {
	n, err := s.reg.Count(ctx, registry.NamespaceJobs)
	if err != nil {
		return Status{}, fmt.Errorf("count jobs: %w", err)
	}
	s.metrics.SetInflight(int64(n))

	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Enabled:   s.cfg.Enabled,
		Running:   s.running.Load(),
		Interval:  s.cfg.Interval,
		LastBatch: s.lastBatch,
		Processed: s.processed.Load(),
		Failed:    s.failed.Load(),
		InFlight:  n,
	}
	if !s.lastTick.IsZero() {
		t := s.lastTick
		st.LastTick = &t
	}
	return st, nil
}

// Jobs lists the registry entries.
func (s *Scheduler) Jobs(ctx context.Context) ([]registry.Entry, error) {
	return s.reg.List(ctx, registry.NamespaceJobs)
}

// ClearJob drops a registry entry so the next tick may admit the document again.
func (s *Scheduler) ClearJob(ctx context.Context, documentID string) error {
	if _, err := s.reg.Get(ctx, registry.NamespaceJobs, documentID); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return ErrJobNotFound
		}
		return err
	}
	if err := s.reg.Remove(ctx, registry.NamespaceJobs, documentID); err != nil {
		return err
	}
	s.logger.Info("job cleared", zap.String("event", "scheduler.cleared"), zap.String("document_id", documentID))
	return nil
}
