package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"remitapi/docs"
	handlers "remitapi/internal/http/handler"
	"remitapi/internal/http/middleware"
	"remitapi/internal/otel"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the reprocessing scheduler",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	shutdownTracing, err := otel.Init(ctx, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			a.logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	if err := a.wire(ctx, prometheus.DefaultRegisterer); err != nil {
		return err
	}

	if a.cfg.Scheduler.Enabled {
		go a.scheduler.Run(ctx)
	}

	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(a.cfg.Intake.MaxBytes) + 1<<20,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Actor())
	app.Use(middleware.Logger(a.logger))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	documents, claims, templates, ops := a.services()
	handlers.RegisterRoutes(app, a.db, handlers.Services{
		Documents: documents,
		Claims:    claims,
		Templates: templates,
		Ops:       ops,
		Readiness: []handlers.Dependency{
			{Name: "redis", Ping: func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }},
		},
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + a.cfg.Port)
	}()
	a.logger.Info("server started",
		zap.String("event", "server.started"),
		zap.String("port", a.cfg.Port),
		zap.Bool("scheduler_enabled", a.cfg.Scheduler.Enabled),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", zap.String("event", "server.stopping"))
	return app.ShutdownWithTimeout(shutdownTimeout)
}
