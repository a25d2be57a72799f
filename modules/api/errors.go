package api

import (
	"errors"
	"log"

	"github.com/example/glamup-shop-verse/domain/apperr"
	"github.com/gofiber/fiber/v2"
)

// statusOf maps an error kind to its HTTP status.
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidCurrency:
		return fiber.StatusBadRequest
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindExternalService:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// customErrorHandler renders every error returned by a handler as an
// ErrorResponse. Internal details never reach the client.
func customErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{
			Error:   "server_error",
			Message: fe.Message,
		})
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		log.Printf("[api] Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   string(apperr.KindInternal),
			Message: "Internal Server Error",
		})
	}

	status := statusOf(ae.Kind)
	message := ae.Message
	if status >= fiber.StatusInternalServerError {
		log.Printf("[api] %s %s failed: %v", c.Method(), c.Path(), err)
		if ae.Kind == apperr.KindInternal {
			message = "Internal Server Error"
		}
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:   string(ae.Kind),
		Message: message,
	})
}

func badRequest(message string) error {
	return apperr.Validation(message)
}
