package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their wire names (json, then params, then
// query tag) so error keys match what the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "params", "query"} {
			name, _, _ := strings.Cut(f.Tag.Get(key), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ScheduleCallRequest is the mentor/admin scheduling form.
type ScheduleCallRequest struct {
	Stage       int       `json:"stage" validate:"required,min=1,max=5"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	MeetingLink string    `json:"meeting_link,omitempty" validate:"omitempty,url,max=2048"`
}

func (r *ScheduleCallRequest) Validate() error {
	return validate.Struct(r)
}

// BookCallRequest is the path parameter of the candidate's book action.
type BookCallRequest struct {
	Stage int `params:"stage" validate:"required,min=1,max=5"`
}

func (r *BookCallRequest) Validate() error {
	return validate.Struct(r)
}

// ListSnapshotsQuery is the admin overview's paging query.
type ListSnapshotsQuery struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}

func (q *ListSnapshotsQuery) Validate() error {
	return validate.Struct(q)
}

// FieldErrors flattens validator errors into field -> message pairs.
// ok is false when err is not a validation error.
func FieldErrors(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "min":
			out[field] = fmt.Sprintf("must be at least %s", fe.Param())
		case "max":
			out[field] = fmt.Sprintf("must be at most %s", fe.Param())
		case "url":
			out[field] = "must be a valid URL"
		default:
			out[field] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
	}
	return out, true
}

