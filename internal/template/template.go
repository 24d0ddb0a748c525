package template

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"remitapi/internal/model"
	"remitapi/internal/repository"
)

// ErrInvalidSchema wraps schema validation failures.
var ErrInvalidSchema = errors.New("invalid template schema")

// RegisterInput describes a new template for a payer.
type RegisterInput struct {
	PayerID   string
	Name      string
	Schema    model.TemplateSchema
	CreatedBy string
}

// Service registers templates and their versions. Every registration puts the
// payer's parked need_template documents back in the processing queue.
type Service struct {
	templates repository.TemplateRepository
	payers    repository.PayerRepository
	documents repository.DocumentRepository
	logger    *zap.Logger
}

func NewService(
	templates repository.TemplateRepository,
	payers repository.PayerRepository,
	documents repository.DocumentRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		templates: templates,
		payers:    payers,
		documents: documents,
		logger:    logger.With(zap.String("component", "template")),
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.Template, *model.TemplateVersion, error) {
	if err := in.Schema.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", ErrInvalidSchema)
	}

	p, err := s.payers.FindByID(ctx, in.PayerID)
	if err != nil {
		return nil, nil, err
	}

	t, v, err := s.templates.Create(ctx, &model.Template{
		ID:        uuid.NewString(),
		OrgID:     p.OrgID,
		PayerID:   p.ID,
		Name:      name,
		CreatedBy: in.CreatedBy,
		CreatedAt: time.Now().UTC(),
	}, in.Schema)
	if err != nil {
		return nil, nil, fmt.Errorf("create template: %w", err)
	}

	s.logger.Info("template registered",
		zap.String("event", "template.registered"),
		zap.String("template_id", t.ID),
		zap.String("payer_id", p.ID),
		zap.Int("fields", len(in.Schema.FieldKeys())),
	)
	s.requeue(ctx, p.ID)
	return t, v, nil
}

// AddVersion appends a version and makes it current.
func (s *Service) AddVersion(ctx context.Context, templateID string, schema model.TemplateSchema, createdBy string) (*model.TemplateVersion, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	t, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	v, err := s.templates.AddVersion(ctx, t.ID, schema, createdBy)
	if err != nil {
		return nil, fmt.Errorf("add template version: %w", err)
	}

	s.logger.Info("template version added",
		zap.String("event", "template.version_added"),
		zap.String("template_id", t.ID),
		zap.Int("version", v.VersionNumber),
	)
	s.requeue(ctx, t.PayerID)
	return v, nil
}

func (s *Service) List(ctx context.Context, payerID string) ([]model.Template, error) {
	if _, err := s.payers.FindByID(ctx, payerID); err != nil {
		return nil, err
	}
	return s.templates.ListByPayer(ctx, payerID)
}

// requeue failures are logged only; the template itself is already stored.
func (s *Service) requeue(ctx context.Context, payerID string) {
	n, err := s.documents.RequeueNeedTemplate(ctx, payerID)
	if err != nil {
		s.logger.Error("requeue need_template documents failed",
			zap.String("event", "template.requeue_failed"),
			zap.String("payer_id", payerID),
			zap.Error(err),
		)
		return
	}
	if n > 0 {
		s.logger.Info("need_template documents requeued",
			zap.String("event", "template.requeued"),
			zap.String("payer_id", payerID),
			zap.Int64("documents", n),
		)
	}
}

// Seed is a template definition loaded from YAML.
type Seed struct {
	Name     string                  `yaml:"name"`
	Payer    string                  `yaml:"payer"`
	Sections []model.TemplateSection `yaml:"sections"`
}

func (s Seed) Schema() model.TemplateSchema {
	return model.TemplateSchema{Sections: s.Sections}
}

// LoadSeed decodes and validates one YAML template seed.
func LoadSeed(r io.Reader) (Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("decode template seed: %w", err)
	}
	if strings.TrimSpace(seed.Name) == "" {
		return Seed{}, fmt.Errorf("%w: name is required", ErrInvalidSchema)
	}
	if err := seed.Schema().Validate(); err != nil {
		return Seed{}, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return seed, nil
}
