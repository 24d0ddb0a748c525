package handler

import (
	"github.com/gofiber/fiber/v2"

	"remitapi/internal/service"
)

// SchedulerStatus reports the reprocessing scheduler's counters.
//
// @Summary  Scheduler status
// @Tags     ops
// @Produce  json
// @Success  200 {object} scheduler.Status
// @Router   /scheduler/status [get]
func SchedulerStatus(svc service.OpsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := svc.SchedulerStatus(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(st)
	}
}

// ListJobs lists running and failed job registry entries.
//
// @Summary  Job registry entries
// @Tags     ops
// @Produce  json
// @Success  200 {object} service.JobListResult
// @Router   /jobs [get]
func ListJobs(svc service.OpsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Jobs(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ClearJob removes a registry entry so the document can be admitted again.
//
// @Summary  Clear a job registry entry
// @Tags     ops
// @Param    documentId path string true "document id"
// @Success  204
// @Failure  404 {object} errorPayload
// @Router   /jobs/{documentId} [delete]
func ClearJob(svc service.OpsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "documentId")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.ClearJob(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
