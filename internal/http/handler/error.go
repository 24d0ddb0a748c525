package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"remitapi/internal/claims"
	"remitapi/internal/http/middleware"
	"remitapi/internal/intake"
	"remitapi/internal/service"
	"remitapi/internal/template"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type apiError struct {
	status  int
	code    string
	message string
}

var rejectionErrors = map[intake.Reason]apiError{
	intake.ReasonUnsupportedFormat: {fiber.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", "unsupported document format"},
	intake.ReasonTooLarge:          {fiber.StatusRequestEntityTooLarge, "TOO_LARGE", "document exceeds the size limit"},
	intake.ReasonTooSmall:          {fiber.StatusBadRequest, "TOO_SMALL", "document is too small"},
}

// statusErrors covers errors fiber raises before a handler runs.
var statusErrors = map[int]apiError{
	fiber.StatusBadRequest:            {fiber.StatusBadRequest, "BAD_REQUEST", "bad request"},
	fiber.StatusNotFound:              {fiber.StatusNotFound, "NOT_FOUND", "resource not found"},
	fiber.StatusMethodNotAllowed:      {fiber.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed"},
	fiber.StatusRequestEntityTooLarge: {fiber.StatusRequestEntityTooLarge, "TOO_LARGE", "request body too large"},
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeErrorDetails(c, status, code, message, nil)
}

// writeErrorDetails renders the envelope. message must be safe to show clients.
func writeErrorDetails(c *fiber.Ctx, status int, code, message string, details map[string]any) error {
	rid, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	return c.Status(status).JSON(errorPayload{
		RequestID: rid,
		Error:     errorEnvelope{Code: code, Message: message, Details: details},
	})
}

// writeServiceError maps domain errors onto the error envelope. Only messages
// of typed domain errors are echoed; anything else is an opaque 500.
func writeServiceError(c *fiber.Ctx, err error) error {
	var rej *intake.Rejection
	if errors.As(err, &rej) {
		if rej.Reason == intake.ReasonDuplicate {
			details := map[string]any{"exported": rej.Exported}
			if rej.ExistingID != "" {
				details["existing_document_id"] = rej.ExistingID
			}
			return writeErrorDetails(c, fiber.StatusConflict, "DUPLICATE_CONTENT", "identical content already uploaded", details)
		}
		if e, ok := rejectionErrors[rej.Reason]; ok {
			return writeError(c, e.status, e.code, e.message)
		}
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrOrgRequired):
		return writeError(c, fiber.StatusBadRequest, "ORG_REQUIRED", "org_id is required")
	case errors.Is(err, service.ErrReaderNil):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, service.ErrInvalidStatus):
		return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "unknown document status")
	case errors.Is(err, service.ErrNotReprocessable):
		return writeError(c, fiber.StatusConflict, "INVALID_DOCUMENT_STATE", err.Error())
	case errors.Is(err, claims.ErrInvalidTransition):
		return writeError(c, fiber.StatusConflict, "INVALID_STATE_TRANSITION", err.Error())
	case errors.Is(err, claims.ErrUnknownMode):
		return writeError(c, fiber.StatusBadRequest, "INVALID_MODE", "mode must be one of draft, confirm, exception")
	case errors.Is(err, template.ErrInvalidSchema):
		return writeError(c, fiber.StatusBadRequest, "INVALID_SCHEMA", err.Error())
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler renders errors that escape handlers in the same envelope.
// Domain errors returned directly are mapped as writeServiceError does.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return writeServiceError(c, err)
		}
		if e, ok := statusErrors[fe.Code]; ok {
			return writeError(c, e.status, e.code, e.message)
		}
		return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
	}
}
