package handler

import (
	"github.com/gofiber/fiber/v2"

	"remitapi/internal/http/middleware"
	"remitapi/internal/service"
)

type editClaimBody struct {
	Mode   string `json:"mode"`
	Fields any    `json:"fields"`
}

// ClaimVersions returns a claim's version history, oldest first.
//
// @Summary  Claim version history
// @Tags     claims
// @Produce  json
// @Param    extractionId path string true "extraction id"
// @Success  200 {object} service.ClaimHistory
// @Failure  404 {object} errorPayload
// @Router   /claims/{extractionId}/versions [get]
func ClaimVersions(svc service.ClaimService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "extractionId")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.Versions(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// EditClaim applies a draft, confirm or exception action. Only fields already
// present in the claim are updated; unknown keys are ignored.
//
// @Summary  Edit a claim
// @Tags     claims
// @Accept   json
// @Produce  json
// @Param    extractionId path string true "extraction id"
// @Param    body body editClaimBody true "mode and field edits"
// @Success  200 {object} service.EditResponse
// @Failure  400 {object} errorPayload
// @Failure  409 {object} errorPayload "invalid state transition"
// @Router   /claims/{extractionId}/edit [post]
func EditClaim(svc service.ClaimService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "extractionId")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body editClaimBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		res, err := svc.Edit(c.UserContext(), id, service.EditRequest{
			Mode:      body.Mode,
			Fields:    body.Fields,
			UpdatedBy: middleware.ActorFromCtx(c),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ExportClaim generates the export of an approved claim. Repeated calls
// return the first export.
//
// @Summary  Export an approved claim
// @Tags     claims
// @Produce  json
// @Param    extractionId path string true "extraction id"
// @Success  201 {object} service.ExportResponse "export generated"
// @Success  200 {object} service.ExportResponse "export already generated"
// @Failure  409 {object} errorPayload "claim not approved"
// @Router   /claims/{extractionId}/export [post]
func ExportClaim(svc service.ClaimService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "extractionId")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.Export(c.UserContext(), id, middleware.ActorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		status := fiber.StatusOK
		if res.Created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(res)
	}
}
