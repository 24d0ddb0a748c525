package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"remitapi/internal/model"
)

// Output is what a structured claim extractor returns for one block.
type Output struct {
	Payload    model.ClaimPayload
	Confidence int
	Raw        json.RawMessage
}

// ClaimExtractor turns one claim block and the expected schema into a payload.
type ClaimExtractor interface {
	Extract(ctx context.Context, blockText string, schema model.TemplateSchema) (Output, error)
}

// CollaboratorError wraps a failed or timed out collaborator call.
type CollaboratorError struct {
	Timeout bool
	Err     error
}

func (e *CollaboratorError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("collaborator timeout: %v", e.Err)
	}
	return fmt.Sprintf("collaborator error: %v", e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Result is the extraction of one block. Cause is set when the collaborator
// failed and the fallback produced the payload.
type Result struct {
	Payload    model.ClaimPayload
	Confidence int
	Source     model.ExtractionSource
	Raw        json.RawMessage
	Cause      error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency caps in-flight collaborator calls across every caller.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.limit = int64(n)
		}
	}
}

// WithTimeout bounds each collaborator call.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithFallbackConfidence sets the confidence stamped on fallback payloads.
func WithFallbackConfidence(c int) Option {
	return func(o *Orchestrator) { o.fallbackConfidence = c }
}

// WithObserver is told the source of every result.
func WithObserver(fn func(model.ExtractionSource)) Option {
	return func(o *Orchestrator) { o.observe = fn }
}

// Orchestrator runs the collaborator under a shared FIFO semaphore and
// falls back to the rule-based extractor whenever it cannot.
type Orchestrator struct {
	collab             ClaimExtractor
	logger             *zap.Logger
	limit              int64
	timeout            time.Duration
	fallbackConfidence int
	observe            func(model.ExtractionSource)
	sem                *semaphore.Weighted
}

// New builds an orchestrator. A nil collab sends every block to the fallback.
func New(collab ClaimExtractor, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		collab:             collab,
		logger:             logger.With(zap.String("component", "extraction")),
		limit:              3,
		timeout:            60 * time.Second,
		fallbackConfidence: 60,
		observe:            func(model.ExtractionSource) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.sem = semaphore.NewWeighted(o.limit)
	return o
}

// Extract runs a single block. It always returns a payload.
func (o *Orchestrator) Extract(ctx context.Context, text string, schema model.TemplateSchema) Result {
	if o.collab == nil {
		return o.fallback(text, schema, nil)
	}
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return o.fallback(text, schema, &CollaboratorError{Err: err})
	}
	defer o.sem.Release(1)
	return o.call(ctx, text, schema)
}

// ExtractAll extracts blocks concurrently. Slots are requested in submission
// order so the semaphore admits them first come, first served. Results keep
// the order of texts.
func (o *Orchestrator) ExtractAll(ctx context.Context, texts []string, schema model.TemplateSchema) []Result {
	results := make([]Result, len(texts))
	if o.collab == nil {
		for i, t := range texts {
			results[i] = o.fallback(t, schema, nil)
		}
		return results
	}

	var g errgroup.Group
	for i, t := range texts {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			results[i] = o.fallback(t, schema, &CollaboratorError{Err: err})
			continue
		}
		g.Go(func() error {
			defer o.sem.Release(1)
			results[i] = o.call(ctx, t, schema)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) call(ctx context.Context, text string, schema model.TemplateSchema) Result {
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	out, err := o.collab.Extract(cctx, text, schema)
	if err != nil {
		cerr := &CollaboratorError{Err: err}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(cctx.Err(), context.DeadlineExceeded) {
			cerr.Timeout = true
		}
		o.logger.Warn("collaborator failed, using fallback",
			zap.String("event", "extract.fallback"),
			zap.Bool("timeout", cerr.Timeout),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return o.fallback(text, schema, cerr)
	}

	o.observe(model.SourceCollaborator)
	return Result{
		Payload:    conform(out.Payload, schema),
		Confidence: clamp(out.Confidence),
		Source:     model.SourceCollaborator,
		Raw:        out.Raw,
	}
}

func (o *Orchestrator) fallback(text string, schema model.TemplateSchema, cause error) Result {
	o.observe(model.SourceFallback)
	return Result{
		Payload:    Fallback(text, schema),
		Confidence: o.fallbackConfidence,
		Source:     model.SourceFallback,
		Cause:      cause,
	}
}

// conform lays a collaborator payload onto the schema so unknown keys are dropped
// and every expected key is present.
func conform(p model.ClaimPayload, schema model.TemplateSchema) model.ClaimPayload {
	out := schema.EmptyPayload()
	for _, sec := range p.Sections {
		for _, f := range sec.Fields {
			if f.Value != nil {
				out.Set(f.Key, *f.Value)
			}
		}
	}
	return out
}

func clamp(c int) int {
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	}
	return c
}
