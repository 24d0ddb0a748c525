package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"remitapi/internal/service"
)

// Services are the use cases the HTTP layer exposes.
type Services struct {
	Documents service.DocumentService
	Claims    service.ClaimService
	Templates service.TemplateService
	Ops       service.OpsService
	// Readiness lists dependencies /health pings after the database.
	Readiness []Dependency
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay free of business logic; they parse, delegate and map errors.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc Services) {
	app.Get("/health", HealthCheck(db, svc.Readiness...))
	app.Get("/healthz", LivenessProbe())

	app.Get("/documents", ListDocuments(svc.Documents))
	app.Post("/documents", UploadDocument(svc.Documents))
	app.Get("/documents/:id", GetDocument(svc.Documents))
	app.Get("/documents/:id/file-url", DocumentFileURL(svc.Documents))
	app.Post("/documents/:id/reprocess", ReprocessDocument(svc.Documents))

	app.Get("/claims/:extractionId/versions", ClaimVersions(svc.Claims))
	app.Post("/claims/:extractionId/edit", EditClaim(svc.Claims))
	app.Post("/claims/:extractionId/export", ExportClaim(svc.Claims))

	app.Get("/orgs/:orgId/payers", ListPayers(svc.Templates))
	app.Get("/payers/:payerId/templates", ListTemplates(svc.Templates))
	app.Post("/payers/:payerId/templates", CreateTemplate(svc.Templates))
	app.Post("/templates/:templateId/versions", AddTemplateVersion(svc.Templates))

	app.Get("/scheduler/status", SchedulerStatus(svc.Ops))
	app.Get("/jobs", ListJobs(svc.Ops))
	app.Delete("/jobs/:documentId", ClearJob(svc.Ops))
}
