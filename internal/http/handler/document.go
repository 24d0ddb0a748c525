package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"remitapi/internal/http/middleware"
	"remitapi/internal/service"
)

// ListDocuments lists documents with limit & offset, optionally narrowed to
// one organization and one status (the review and exception queues).
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Param    org_id query string false "organization id"
// @Param    status query string false "document status"
// @Param    limit  query int    false "page size" default(10)
// @Param    offset query int    false "page offset" default(0)
// @Success  200 {object} service.DocumentListResult
// @Failure  400 {object} errorPayload
// @Router   /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), service.ListFilter{
			OrgID:  c.Query("org_id"),
			Status: c.Query("status"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument admits a remittance file (multipart/form-data, fields: file, org_id).
//
// @Summary  Upload a remittance document
// @Tags     documents
// @Accept   mpfd
// @Produce  json
// @Param    file   formData file   true "document"
// @Param    org_id formData string true "organization id"
// @Success  201 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  409 {object} errorPayload "duplicate content"
// @Failure  413 {object} errorPayload
// @Failure  415 {object} errorPayload
// @Router   /documents [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		orgID := c.FormValue("org_id")
		if orgID == "" {
			return writeError(c, fiber.StatusBadRequest, "ORG_REQUIRED", "org_id is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), service.UploadInput{
			Reader:     f,
			Filename:   fh.Filename,
			OrgID:      orgID,
			UploadedBy: middleware.ActorFromCtx(c),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns a document with its claims and their latest versions.
//
// @Summary  Get a document
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {object} service.DocumentDetail
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DocumentFileURL presigns the original upload.
//
// @Summary  Presigned download URL of the original file
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  200 {object} map[string]string
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/file-url [get]
func DocumentFileURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := svc.FileURL(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// ReprocessDocument sends a need_template or exception document back through
// the pipeline, for example once its payer has been registered.
//
// @Summary  Reprocess a parked document
// @Tags     documents
// @Produce  json
// @Param    id path string true "document id"
// @Success  202 {object} model.Document
// @Failure  404 {object} errorPayload
// @Failure  409 {object} errorPayload "document not parked"
// @Router   /documents/{id}/reprocess [post]
func ReprocessDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Reprocess(c.UserContext(), id, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(doc)
	}
}

func uuidParam(c *fiber.Ctx, name string) (string, bool) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}
