package serverutils

import (
	"errors"

	"nexus-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Classify maps an error onto a status code and a stable machine readable code.
// The socket layer uses the code for its error events.
func Classify(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest, "validation_error"
	case errors.Is(err, service.ErrUnauthorized):
		return fiber.StatusForbidden, "unauthorized"
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrRateLimited):
		return fiber.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, service.ErrGeneration):
		return fiber.StatusBadGateway, "generation_failed"
	case errors.As(err, &fiberErr):
		return fiberErr.Code, "request_error"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}

// ErrorHandlerMiddleware renders errors returned by downstream handlers as ErrorBody.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status, code := Classify(err)
		detail := err.Error()
		if status == fiber.StatusInternalServerError {
			detail = "internal server error"
		}
		return ctx.Status(status).JSON(ErrorResponse(status, code, detail))
	}
}
