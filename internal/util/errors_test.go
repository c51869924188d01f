package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/fadilmartias/mentor-progress/internal/progress"
	"github.com/fadilmartias/mentor-progress/internal/repository"
	"github.com/fadilmartias/mentor-progress/internal/service"
	"github.com/fadilmartias/mentor-progress/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: http.StatusOK},
		{name: "validation", err: &usecase.ValidationError{Field: "stage", Message: "bad"}, expected: http.StatusBadRequest},
		{name: "form", err: NewFormError("invalid", map[string]string{"stage": "required"}), expected: http.StatusBadRequest},
		{name: "forbidden", err: usecase.ErrForbidden, expected: http.StatusForbidden},
		{name: "not eligible wrapped", err: fmt.Errorf("%w: call 3", usecase.ErrStageNotEligible), expected: http.StatusConflict},
		{name: "no snapshot", err: repository.ErrSnapshotNotFound, expected: http.StatusNotFound},
		{name: "session closed", err: service.ErrSessionClosed, expected: http.StatusUnauthorized},
		{name: "circuit open", err: fmt.Errorf("%w: 5 consecutive errors", service.ErrCircuitOpen), expected: http.StatusServiceUnavailable},
		{name: "malformed", err: fmt.Errorf("decode status: %w", progress.ErrMalformedPayload), expected: http.StatusBadGateway},
		{name: "upstream conflict", err: &service.UpstreamError{Status: 409}, expected: http.StatusConflict},
		{name: "upstream unprocessable", err: &service.UpstreamError{Status: 422}, expected: http.StatusUnprocessableEntity},
		{name: "upstream 500", err: &service.UpstreamError{Status: 500}, expected: http.StatusBadGateway},
		{name: "fiber error", err: fiber.NewError(fiber.StatusTeapot, "tea"), expected: fiber.StatusTeapot},
		{name: "context", err: context.Canceled, expected: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &usecase.ValidationError{Field: "stage", Message: "must be between 1 and 5"}
	assert.Equal(t, "validation error: stage - must be between 1 and 5", err.Error())
}
