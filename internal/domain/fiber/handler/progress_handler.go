package handler

import (
	"time"

	"github.com/fadilmartias/mentor-progress/internal/config"
	"github.com/fadilmartias/mentor-progress/internal/dto"
	"github.com/fadilmartias/mentor-progress/internal/middleware"
	"github.com/fadilmartias/mentor-progress/internal/service"
	"github.com/fadilmartias/mentor-progress/internal/session"
	"github.com/fadilmartias/mentor-progress/internal/usecase"
	"github.com/fadilmartias/mentor-progress/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CircuitBreaker is the part of the backend client exposed to admins.
type CircuitBreaker interface {
	GetCircuitBreakerStatus() (consecutiveErrors int, isOpen bool)
	ResetCircuitBreaker()
}

type ProgressHandler struct {
	uc      *usecase.ProgressUsecase
	breaker CircuitBreaker
}

func NewProgressHandler(uc *usecase.ProgressUsecase, breaker CircuitBreaker) *ProgressHandler {
	return &ProgressHandler{uc: uc, breaker: breaker}
}

func (h *ProgressHandler) RegisterRoutes(app *fiber.App, authority *session.Authority) {
	limits := config.LoadRateLimitConfig()
	api := app.Group("/api/v1", middleware.Auth(authority))

	candidate := middleware.RequireRoles(session.RoleCandidate)
	staff := middleware.RequireRoles(session.RoleMentor, session.RoleAdmin)
	admin := middleware.RequireRoles(session.RoleAdmin)
	booking := middleware.SessionRateLimiter(limits.BookMax, limits.BookWindow)

	api.Get("/me/next-call", candidate, h.MyNextCall)
	api.Get("/me/progress", candidate, h.MyProgress)
	api.Post("/me/calls/:stage/book", candidate, booking, h.BookCall)

	api.Get("/candidates/:id/next-call", staff, h.CandidateNextCall)
	api.Get("/candidates/:id/progress", staff, h.CandidateProgress)
	api.Get("/candidates/:id/eligible-calls", staff, h.EligibleCalls)
	api.Post("/candidates/:id/calls/schedule", staff, booking, h.ScheduleCall)

	api.Get("/admin/snapshots", admin, h.ListSnapshots)
	api.Get("/admin/backend", admin, h.BackendStatus)
	api.Post("/admin/backend/reset", admin, h.ResetBackend)
}

func (h *ProgressHandler) MyNextCall(c *fiber.Ctx) error {
	sess := mustSession(c)
	return h.nextCall(c, sess, sess.UserID.String())
}

func (h *ProgressHandler) CandidateNextCall(c *fiber.Ctx) error {
	id, err := candidateID(c)
	if err != nil {
		return util.Fail(c, "Invalid candidate id", err)
	}
	return h.nextCall(c, mustSession(c), id)
}

func (h *ProgressHandler) nextCall(c *fiber.Ctx, sess *session.Session, id string) error {
	view, err := h.uc.NextCall(c.UserContext(), sess, id)
	if err != nil {
		return util.Fail(c, "Failed to load next call", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get next call",
		Data:    view,
	})
}

func (h *ProgressHandler) MyProgress(c *fiber.Ctx) error {
	sess := mustSession(c)
	return h.progress(c, sess, sess.UserID.String())
}

func (h *ProgressHandler) CandidateProgress(c *fiber.Ctx) error {
	id, err := candidateID(c)
	if err != nil {
		return util.Fail(c, "Invalid candidate id", err)
	}
	return h.progress(c, mustSession(c), id)
}

func (h *ProgressHandler) progress(c *fiber.Ctx, sess *session.Session, id string) error {
	overview, err := h.uc.Progress(c.UserContext(), sess, id)
	if err != nil {
		return util.Fail(c, "Failed to load progress", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get progress",
		Data:    overview,
	})
}

func (h *ProgressHandler) BookCall(c *fiber.Ctx) error {
	var req dto.BookCallRequest
	if err := c.ParamsParser(&req); err != nil {
		return util.Fail(c, "Invalid stage", formError("stage", "must be a number"))
	}
	if err := req.Validate(); err != nil {
		return util.Fail(c, "Invalid stage", asFormError(err))
	}

	sess := mustSession(c)
	view, err := h.uc.BookCall(c.UserContext(), sess, sess.UserID.String(), req.Stage)
	if err != nil {
		return util.Fail(c, "Failed to book call", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Call booking submitted",
		Data:    view,
	})
}

func (h *ProgressHandler) EligibleCalls(c *fiber.Ctx) error {
	id, err := candidateID(c)
	if err != nil {
		return util.Fail(c, "Invalid candidate id", err)
	}
	stages, err := h.uc.EligibleCalls(c.UserContext(), mustSession(c), id)
	if err != nil {
		return util.Fail(c, "Failed to load eligible calls", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get eligible calls",
		Data:    fiber.Map{"candidate_id": id, "eligible_calls": stages},
	})
}

func (h *ProgressHandler) ScheduleCall(c *fiber.Ctx) error {
	id, err := candidateID(c)
	if err != nil {
		return util.Fail(c, "Invalid candidate id", err)
	}
	var req dto.ScheduleCallRequest
	if err := c.BodyParser(&req); err != nil {
		return util.Fail(c, "Invalid request body", fiber.NewError(fiber.StatusBadRequest, err.Error()))
	}
	if err := req.Validate(); err != nil {
		return util.Fail(c, "Invalid request body", asFormError(err))
	}

	overview, err := h.uc.ScheduleCall(c.UserContext(), mustSession(c), id, service.ScheduleCallInput{
		Stage:       req.Stage,
		ScheduledAt: req.ScheduledAt.UTC(),
		MeetingLink: req.MeetingLink,
	})
	if err != nil {
		return util.Fail(c, "Failed to schedule call", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Call scheduled",
		Data:    overview,
	})
}

func (h *ProgressHandler) ListSnapshots(c *fiber.Ctx) error {
	var q dto.ListSnapshotsQuery
	if err := c.QueryParser(&q); err != nil {
		return util.Fail(c, "Invalid query", fiber.NewError(fiber.StatusBadRequest, err.Error()))
	}
	if err := q.Validate(); err != nil {
		return util.Fail(c, "Invalid query", asFormError(err))
	}

	snapshots, pagination, err := h.uc.ListSnapshots(mustSession(c), q.Page, q.PageSize)
	if err != nil {
		return util.Fail(c, "Failed to list snapshots", err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success list snapshots",
		Data:       snapshots,
		Pagination: pagination,
	})
}

func (h *ProgressHandler) BackendStatus(c *fiber.Ctx) error {
	failures, open := h.breaker.GetCircuitBreakerStatus()
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get backend status",
		Data: fiber.Map{
			"circuit_open":         open,
			"consecutive_failures": failures,
			"checked_at":           time.Now().UTC(),
		},
	})
}

func (h *ProgressHandler) ResetBackend(c *fiber.Ctx) error {
	h.breaker.ResetCircuitBreaker()
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Circuit breaker reset",
	})
}

// mustSession is only used behind middleware.Auth.
func mustSession(c *fiber.Ctx) *session.Session {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		panic("handler reached without a session")
	}
	return sess
}

func candidateID(c *fiber.Ctx) (string, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", formError("id", "must be a UUID")
	}
	return id.String(), nil
}

func formError(field, message string) *util.FormError {
	return util.NewFormError("invalid request", map[string]string{field: message})
}

func asFormError(err error) error {
	fields, ok := dto.FieldErrors(err)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return util.NewFormError("invalid request", fields)
}
