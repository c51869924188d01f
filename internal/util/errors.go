package util

import (
	"errors"

	"github.com/fadilmartias/mentor-progress/internal/progress"
	"github.com/fadilmartias/mentor-progress/internal/repository"
	"github.com/fadilmartias/mentor-progress/internal/service"
	"github.com/fadilmartias/mentor-progress/internal/usecase"
	"github.com/gofiber/fiber/v2"
)

// HTTPStatus maps domain and backend errors to the status returned to the UI.
func HTTPStatus(err error) int {
	var (
		upstream *service.UpstreamError
		verr     *usecase.ValidationError
		ferr     *FormError
		fiberErr *fiber.Error
	)
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &verr), errors.As(err, &ferr):
		return fiber.StatusBadRequest
	case errors.Is(err, usecase.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, usecase.ErrStageNotEligible):
		return fiber.StatusConflict
	case errors.Is(err, repository.ErrSnapshotNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrSessionClosed):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrCircuitOpen):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, progress.ErrMalformedPayload):
		return fiber.StatusBadGateway
	case errors.As(err, &upstream):
		switch upstream.Status {
		case fiber.StatusUnauthorized, fiber.StatusForbidden, fiber.StatusNotFound,
			fiber.StatusConflict, fiber.StatusUnprocessableEntity, fiber.StatusTooManyRequests:
			return upstream.Status
		}
		return fiber.StatusBadGateway
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// Fail answers with the status HTTPStatus picks for err.
func Fail(c *fiber.Ctx, message string, err error) error {
	params := ErrorResponseFormat{
		Code:    HTTPStatus(err),
		Message: message,
	}
	var ferr *FormError
	if errors.As(err, &ferr) {
		params.Details = ferr.Errors
	}
	var upstream *service.UpstreamError
	if errors.As(err, &upstream) && upstream.Message != "" {
		params.Message = message + ": " + upstream.Message
	}
	return ErrorResponse(c, params, err)
}
