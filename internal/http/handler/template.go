package handler

import (
	"github.com/gofiber/fiber/v2"

	"remitapi/internal/http/middleware"
	"remitapi/internal/model"
	"remitapi/internal/service"
)

type createTemplateBody struct {
	Name   string               `json:"name"`
	Schema model.TemplateSchema `json:"schema"`
}

type addVersionBody struct {
	Schema model.TemplateSchema `json:"schema"`
}

// ListPayers lists the payers an organization has seen.
//
// @Summary  List payers
// @Tags     templates
// @Produce  json
// @Param    orgId path string true "organization id"
// @Success  200 {array} model.Payer
// @Router   /orgs/{orgId}/payers [get]
func ListPayers(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payers, err := svc.Payers(c.UserContext(), c.Params("orgId"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(payers)
	}
}

// ListTemplates lists a payer's templates.
//
// @Summary  List payer templates
// @Tags     templates
// @Produce  json
// @Param    payerId path string true "payer id"
// @Success  200 {array} model.Template
// @Failure  404 {object} errorPayload
// @Router   /payers/{payerId}/templates [get]
func ListTemplates(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "payerId")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		ts, err := svc.List(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(ts)
	}
}

// CreateTemplate registers a template for a payer; its documents waiting for
// a template are queued for processing again.
//
// @Summary  Register a payer template
// @Tags     templates
// @Accept   json
// @Produce  json
// @Param    payerId path string true "payer id"
// @Param    body body createTemplateBody true "template"
// @Success  201 {object} service.TemplateResult
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /payers/{payerId}/templates [post]
func CreateTemplate(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "payerId")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body createTemplateBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		res, err := svc.Create(c.UserContext(), id, service.CreateTemplateRequest{
			Name:      body.Name,
			Schema:    body.Schema,
			CreatedBy: middleware.ActorFromCtx(c),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// AddTemplateVersion appends a version that becomes current.
//
// @Summary  Add a template version
// @Tags     templates
// @Accept   json
// @Produce  json
// @Param    templateId path string true "template id"
// @Param    body body addVersionBody true "schema"
// @Success  201 {object} model.TemplateVersion
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /templates/{templateId}/versions [post]
func AddTemplateVersion(svc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "templateId")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body addVersionBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		v, err := svc.AddVersion(c.UserContext(), id, body.Schema, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(v)
	}
}
