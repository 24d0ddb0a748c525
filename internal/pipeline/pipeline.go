// Package pipeline drives one document from stored bytes to reviewable claims.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"remitapi/internal/config"
	"remitapi/internal/extraction"
	"remitapi/internal/metrics"
	"remitapi/internal/model"
	"remitapi/internal/payer"
	"remitapi/internal/repository"
	"remitapi/internal/segment"
	"remitapi/internal/storage"
	"remitapi/internal/template"
	"remitapi/internal/textextract"
)

const tracerName = "remitapi/internal/pipeline"

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Documents repository.DocumentRepository
	Claims    repository.ClaimRepository
	Storage   storage.Storage
	Text      textextract.Extractor
	Extractor *extraction.Orchestrator
	Payers    *payer.Resolver
	Matcher   *template.Matcher
	Metrics   *metrics.Metrics
}

// Outcome summarizes one run.
type Outcome struct {
	DocumentID        string
	Status            model.DocumentStatus
	Reason            string
	Skipped           bool
	Blocks            int
	Reused            int
	Accepted          int
	NeedTemplate      int
	// Unidentified counts parked blocks no payer could be resolved for.
	Unidentified      int
	Failed            int
	PayerID           *string
	TemplateVersionID *string
}

type Pipeline struct {
	d         Deps
	cfg       config.PipelineConfig
	segmenter *segment.Segmenter
	logger    *zap.Logger
	tracer    trace.Tracer
}

func New(d Deps, cfg config.PipelineConfig, logger *zap.Logger) *Pipeline {
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 50
	}
	return &Pipeline{
		d:         d,
		cfg:       cfg,
		segmenter: segment.New(cfg.MinBlockChars),
		logger:    logger.With(zap.String("component", "pipeline")),
		tracer:    otel.Tracer(tracerName),
	}
}

// Process runs the pipeline for one document. Documents no longer in
// ai_processing are skipped. Terminal classifications (unreadable,
// need_template, exception) are outcomes, not errors; an error means the run
// should be retried.
func (p *Pipeline) Process(ctx context.Context, documentID string) (*Outcome, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Process", trace.WithAttributes(attribute.String("document.id", documentID)))
	defer span.End()

	start := time.Now()
	out, err := p.process(ctx, documentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.d.Metrics.PipelineRun("error", time.Since(start))
		p.logger.Error("pipeline run failed",
			zap.String("event", "pipeline.document.failed"),
			zap.String("document_id", documentID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}
	if out.Skipped {
		return out, nil
	}

	span.SetAttributes(attribute.String("document.status", string(out.Status)), attribute.Int("blocks", out.Blocks))
	p.d.Metrics.PipelineRun(string(out.Status), time.Since(start))
	p.logger.Info("pipeline run done",
		zap.String("event", "pipeline.document.done"),
		zap.String("document_id", documentID),
		zap.String("status", string(out.Status)),
		zap.Int("blocks", out.Blocks),
		zap.Int("accepted", out.Accepted),
		zap.Int("need_template", out.NeedTemplate),
		zap.Int("failed", out.Failed),
		zap.Int("reused", out.Reused),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (p *Pipeline) process(ctx context.Context, documentID string) (*Outcome, error) {
	doc, err := p.d.Documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, eris.Wrapf(err, "load document %s", documentID)
	}
	out := &Outcome{DocumentID: doc.ID, Status: doc.Status}
	if doc.Status != model.DocumentProcessing {
		out.Skipped = true
		return out, nil
	}

	text, err := p.text(ctx, doc)
	if err != nil {
		var fe *textextract.FormatError
		if errors.As(err, &fe) || errors.Is(err, storage.ErrNotFound) {
			return p.classify(ctx, out, model.DocumentUnreadable, err.Error())
		}
		return nil, eris.Wrap(err, "extract text")
	}
	if len(strings.TrimSpace(text)) < p.cfg.MinTextChars {
		return p.classify(ctx, out, model.DocumentUnreadable, "extracted text too short")
	}

	blocks := p.segmenter.Split(text)
	out.Blocks = len(blocks)
	if len(blocks) == 0 {
		return p.classify(ctx, out, model.DocumentUnreadable, "no claim blocks found")
	}

	prior, err := p.d.Claims.ListExtractions(ctx, doc.ID)
	if err != nil {
		return nil, eris.Wrap(err, "list prior extractions")
	}
	done := make(map[int]model.ExtractionResult)
	for _, e := range prior {
		if e.Status.Accepted() {
			done[e.BlockIndex] = e
		}
	}
	if _, err := p.d.Claims.SupersedePlaceholders(ctx, doc.ID); err != nil {
		return nil, eris.Wrap(err, "supersede placeholders")
	}

	todo := make([]segment.Block, 0, len(blocks))
	for _, b := range blocks {
		if _, ok := done[b.Index]; ok {
			out.Reused++
			continue
		}
		todo = append(todo, b)
	}
	for _, e := range done {
		out.Accepted++
		if out.PayerID == nil && e.PayerID != nil {
			out.PayerID = e.PayerID
		}
		if out.TemplateVersionID == nil && e.TemplateVersionID != nil {
			out.TemplateVersionID = e.TemplateVersionID
		}
	}

	if len(todo) > 0 {
		if err := p.extract(ctx, doc, text, todo, out); err != nil {
			return nil, err
		}
	}

	switch {
	case out.NeedTemplate > 0:
		out.Status = model.DocumentNeedTemplate
		out.Reason = "no template matched for payer"
		if out.Unidentified > 0 {
			out.Reason = "payer not identified; register a template for the payer and reprocess"
		}
	case out.Accepted > 0:
		out.Status = model.DocumentPendingReview
	default:
		out.Status = model.DocumentException
		out.Reason = "no claim identifier in any block"
	}
	if err := p.d.Documents.UpdateOutcome(ctx, doc.ID, out.Status, out.Reason, out.PayerID, out.TemplateVersionID); err != nil {
		return nil, eris.Wrap(err, "update document outcome")
	}
	return out, nil
}

func (p *Pipeline) text(ctx context.Context, doc *model.Document) (string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.text")
	defer span.End()
	return textextract.FromStore(ctx, p.d.Storage, p.d.Text, doc.StorageRef, doc.MimeType, p.logger)
}

// extract runs the fan-out for the pending blocks and persists one
// extraction record per block in block order.
func (p *Pipeline) extract(ctx context.Context, doc *model.Document, text string, blocks []segment.Block, out *Outcome) error {
	hint, err := p.d.Payers.Hint(ctx, doc.OrgID, text)
	if err != nil {
		return eris.Wrap(err, "payer hint")
	}
	hintID := ""
	if hint != nil {
		hintID = hint.ID
	}
	schema, err := p.d.Matcher.ExpectedSchema(ctx, hintID)
	if err != nil {
		return eris.Wrap(err, "expected schema")
	}

	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text()
	}
	ectx, span := p.tracer.Start(ctx, "pipeline.extract", trace.WithAttributes(attribute.Int("blocks", len(texts))))
	results := p.d.Extractor.ExtractAll(ectx, texts, schema)
	span.End()

	for i, res := range results {
		if err := p.persist(ctx, doc, blocks[i], res, hint, out); err != nil {
			return eris.Wrapf(err, "persist block %d", blocks[i].Index)
		}
	}
	return nil
}

func (p *Pipeline) persist(ctx context.Context, doc *model.Document, b segment.Block, res extraction.Result, hint *model.Payer, out *Outcome) error {
	now := time.Now().UTC()
	ext := &model.ExtractionResult{
		ID:          uuid.NewString(),
		DocumentID:  doc.ID,
		BlockIndex:  b.Index,
		ClaimNumber: res.Payload.ClaimNumber(),
		Source:      res.Source,
		Confidence:  res.Confidence,
		RawResponse: res.Raw,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ext.ClaimNumber == "" {
		ext.Status = model.ClaimFailed
		out.Failed++
		return p.d.Claims.CreateExtraction(ctx, ext, nil)
	}

	name := ""
	if hint != nil {
		name = hint.Name
	} else if v, ok := res.Payload.Value(model.FieldPayerName); ok {
		name = strings.TrimSpace(v)
	}

	var match template.MatchResult
	if name != "" {
		py, err := p.d.Payers.Resolve(ctx, doc.OrgID, name)
		if err != nil {
			return err
		}
		ext.PayerID = &py.ID
		ext.PayerName = py.Name
		if out.PayerID == nil {
			out.PayerID = &py.ID
		}
		if match, err = p.d.Matcher.Match(ctx, py.ID, res.Payload.Keys()); err != nil {
			return err
		}
	}

	first := &model.ClaimVersion{
		ID:           uuid.NewString(),
		ExtractionID: ext.ID,
		DocumentID:   doc.ID,
		Version:      model.InitialVersion(),
		CreatedAt:    now,
	}
	if match.Accepted() {
		c := match.Candidate
		ext.TemplateID = &c.Template.ID
		ext.TemplateVersionID = &c.Version.ID
		ext.MatchFraction = match.Fraction
		ext.TemplateMatched = match.Matched
		ext.Status = model.ClaimPendingReview
		first.Payload = res.Payload
		first.Status = model.ClaimPendingReview
		out.Accepted++
		if out.TemplateVersionID == nil {
			out.TemplateVersionID = &c.Version.ID
		}
	} else {
		ext.MatchFraction = match.Fraction
		ext.Status = model.ClaimNeedTemplate
		first.Payload = model.ClaimPayload{Sections: []model.PayloadSection{}}
		first.Status = model.ClaimNeedTemplate
		out.NeedTemplate++
		if ext.PayerID == nil {
			out.Unidentified++
		}
	}
	ext.CurrentVersion = first.Version.String()
	return p.d.Claims.CreateExtraction(ctx, ext, first)
}

func (p *Pipeline) classify(ctx context.Context, out *Outcome, status model.DocumentStatus, reason string) (*Outcome, error) {
	if err := p.d.Documents.UpdateStatus(ctx, out.DocumentID, status, reason); err != nil {
		return nil, eris.Wrapf(err, "set document %s", status)
	}
	out.Status = status
	out.Reason = reason
	return out, nil
}
