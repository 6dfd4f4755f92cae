package serverutils

import (
	"errors"

	"idealab-be/pkg/workflow"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a workflow error kind to its HTTP status.
func StatusFor(kind workflow.Kind) int {
	switch kind {
	case workflow.KindValidation:
		return fiber.StatusBadRequest
	case workflow.KindNotFound:
		return fiber.StatusNotFound
	case workflow.KindUnauthorized:
		return fiber.StatusUnauthorized
	case workflow.KindForbidden:
		return fiber.StatusForbidden
	case workflow.KindInvalidTransition:
		return fiber.StatusUnprocessableEntity
	case workflow.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON error
// envelope. Persistence failures never leak their cause.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	var werr *workflow.Error
	if errors.As(err, &werr) {
		status := StatusFor(werr.Kind)
		msg := werr.Error()
		if werr.Kind == workflow.KindPersistence {
			msg = "internal error"
		}
		body := ErrorResponse(status, msg)
		body.Kind = string(werr.Kind)
		return ctx.Status(status).JSON(body)
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Code, ferr.Message))
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "internal error"))
}
