package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"remitapi/internal/claims"
	"remitapi/internal/config"
	"remitapi/internal/database"
	"remitapi/internal/database/migration"
	"remitapi/internal/export"
	"remitapi/internal/extraction"
	"remitapi/internal/intake"
	"remitapi/internal/llm/openai"
	"remitapi/internal/logging"
	"remitapi/internal/metrics"
	"remitapi/internal/payer"
	"remitapi/internal/pipeline"
	"remitapi/internal/registry"
	"remitapi/internal/repository/postgres"
	"remitapi/internal/scheduler"
	"remitapi/internal/service"
	"remitapi/internal/storage"
	"remitapi/internal/template"
	"remitapi/internal/textextract"
)

// app holds the process-wide collaborators shared by every command.
type app struct {
	cfg    *config.AppConfig
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client

	objects   storage.Storage
	documents *postgres.DocumentPostgres
	claims    *postgres.ClaimPostgres
	payers    *postgres.PayerPostgres
	templates *postgres.TemplatePostgres

	metrics   *metrics.Metrics
	resolver  *payer.Resolver
	registrar *template.Service
	scheduler *scheduler.Scheduler
	store     *claims.Store
	intake    *intake.Intake
}

// bootstrap connects the backing stores. Pipeline collaborators are built by
// wire so commands that only touch the database stay cheap.
func bootstrap(ctx context.Context) (*app, error) {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.Location())

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := migration.Up(ctx, db, logger, cfg.Database.Host); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		documents: postgres.NewDocumentPostgres(db),
		claims:    postgres.NewClaimPostgres(db),
		payers:    postgres.NewPayerPostgres(db),
		templates: postgres.NewTemplatePostgres(db),
	}
	a.resolver = payer.NewResolver(a.payers, logger)
	a.registrar = template.NewService(a.templates, a.payers, a.documents, logger)
	return a, nil
}

// wire builds the object store, the job registry and the pipeline.
func (a *app) wire(ctx context.Context, reg prometheus.Registerer) error {
	objects, err := storage.NewMinIO(ctx, a.cfg.MinIO)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}
	a.objects = objects

	rc, err := registry.Connect(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.redis = rc
	jobs := registry.NewRedis(rc, a.cfg.Redis.KeyPrefix)

	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	a.metrics = m

	var collab extraction.ClaimExtractor
	client, err := openai.New(a.cfg.LLM, a.logger)
	switch {
	case err == nil:
		collab = client
	case errors.Is(err, openai.ErrDisabled):
		a.logger.Warn("llm collaborator disabled; fallback extraction only",
			zap.String("event", "llm.disabled"))
	default:
		return fmt.Errorf("init llm client: %w", err)
	}

	extractor := extraction.New(collab, a.logger,
		extraction.WithConcurrency(a.cfg.Pipeline.ExtractConcurrency),
		extraction.WithTimeout(a.cfg.Pipeline.ExtractTimeout),
		extraction.WithFallbackConfidence(a.cfg.Pipeline.FallbackConfidence),
		extraction.WithObserver(m.Extraction),
	)

	p := pipeline.New(pipeline.Deps{
		Documents: a.documents,
		Claims:    a.claims,
		Storage:   objects,
		Text:      textextract.Local{},
		Extractor: extractor,
		Payers:    a.resolver,
		Matcher:   template.NewMatcher(a.templates, a.cfg.Pipeline.MatchThreshold),
		Metrics:   m,
	}, a.cfg.Pipeline, a.logger)

	a.scheduler = scheduler.New(a.documents, jobs, p, a.cfg.Scheduler, a.logger, scheduler.WithMetrics(m))
	a.store = claims.NewStore(a.claims, a.documents, objects, export.NewXLSX(), a.logger)
	a.intake = intake.New(a.documents, objects, jobs, a.cfg.Intake, a.logger)
	return nil
}

func (a *app) services() (service.DocumentService, service.ClaimService, service.TemplateService, service.OpsService) {
	var dispatch service.Dispatcher
	if a.cfg.Pipeline.ProcessOnUpload {
		dispatch = a.scheduler
	}
	ttl := a.cfg.MinIO.PresignTTL
	return service.NewDocumentService(a.intake, a.documents, a.claims, a.objects, dispatch, ttl, a.logger),
		service.NewClaimService(a.store, a.objects, ttl),
		service.NewTemplateService(a.registrar, a.payers),
		service.NewOpsService(a.scheduler)
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("database close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
