package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden        = errors.New("not allowed for this session")
	ErrStageNotEligible = errors.New("call is not eligible for scheduling")
)

// ValidationError rejects a request before anything is sent to the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}
