package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fadilmartias/mentor-progress/internal/config"
	"github.com/fadilmartias/mentor-progress/internal/progress"
	"github.com/fadilmartias/mentor-progress/internal/session"
	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/tidwall/gjson"
)

var (
	ErrCircuitOpen   = errors.New("backend circuit breaker open")
	ErrNoBaseURL     = errors.New("BACKEND_BASE_URL not set")
	ErrSessionClosed = errors.New("session closed")
)

// UpstreamError is a non 2xx answer from the backend.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// ScheduleCallInput is what a mentor or admin submits to book a slot for a candidate.
type ScheduleCallInput struct {
	Stage       int
	ScheduledAt time.Time
	MeetingLink string
}

type BackendServiceInterface interface {
	FetchStatus(ctx context.Context, sess *session.Session, candidateID string) (progress.CandidateStatus, []byte, error)
	FetchScheduledCalls(ctx context.Context, sess *session.Session, candidateID string) ([]progress.ScheduledCall, []byte, error)
	FetchEligibleCalls(ctx context.Context, sess *session.Session, candidateID string) ([]int, error)
	BookCall(ctx context.Context, sess *session.Session, candidateID string, stage int) error
	ScheduleCall(ctx context.Context, sess *session.Session, candidateID string, in ScheduleCallInput) error
}

// BackendService talks to the platform's REST backend. GETs are retried on
// 429, 5xx and transport errors; mutations are sent once.
type BackendService struct {
	client *resty.Client

	mu                sync.Mutex
	consecutiveErrors int
	circuitBreakerMax int
	lastFailure       time.Time
	cooldown          time.Duration
	halfOpen          bool
}

func NewBackendService(cfg *config.BackendConfig) (*BackendService, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		AddRetryCondition(isRetryable)

	cooldown := cfg.CircuitCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	return &BackendService{
		client:            client,
		circuitBreakerMax: cfg.CircuitBreakerMax,
		cooldown:          cooldown,
	}, nil
}

func isRetryable(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	switch resp.StatusCode() {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (s *BackendService) FetchStatus(ctx context.Context, sess *session.Session, candidateID string) (progress.CandidateStatus, []byte, error) {
	body, err := s.get(ctx, sess, "/candidates/{id}/status", candidateID)
	if err != nil {
		return progress.CandidateStatus{}, nil, err
	}
	status, err := progress.ParseStatus(body)
	if err != nil {
		return progress.CandidateStatus{}, nil, fmt.Errorf("decode status: %w", err)
	}
	return status, body, nil
}

func (s *BackendService) FetchScheduledCalls(ctx context.Context, sess *session.Session, candidateID string) ([]progress.ScheduledCall, []byte, error) {
	body, err := s.get(ctx, sess, "/candidates/{id}/scheduled-calls", candidateID)
	if err != nil {
		return nil, nil, err
	}
	calls, err := progress.ParseScheduledCalls(body)
	if err != nil {
		return nil, nil, fmt.Errorf("decode scheduled calls: %w", err)
	}
	return calls, body, nil
}

func (s *BackendService) FetchEligibleCalls(ctx context.Context, sess *session.Session, candidateID string) ([]int, error) {
	body, err := s.get(ctx, sess, "/candidates/{id}/eligible-calls", candidateID)
	if err != nil {
		return nil, err
	}
	stages, err := progress.ParseEligibleCalls(body)
	if err != nil {
		return nil, fmt.Errorf("decode eligible calls: %w", err)
	}
	return stages, nil
}

func (s *BackendService) BookCall(ctx context.Context, sess *session.Session, candidateID string, stage int) error {
	return s.post(ctx, sess, "/candidates/{id}/calls/{stage}/book", candidateID, stage, map[string]any{
		"callNumber": stage,
	})
}

func (s *BackendService) ScheduleCall(ctx context.Context, sess *session.Session, candidateID string, in ScheduleCallInput) error {
	body := map[string]any{
		"callNumber":  in.Stage,
		"scheduledAt": in.ScheduledAt.UTC().Format(time.RFC3339),
	}
	if in.MeetingLink != "" {
		body["meetingLink"] = in.MeetingLink
	}
	return s.post(ctx, sess, "/candidates/{id}/calls/{stage}/schedule", candidateID, in.Stage, body)
}

func (s *BackendService) get(ctx context.Context, sess *session.Session, path, candidateID string) ([]byte, error) {
	req, err := s.request(ctx, sess)
	if err != nil {
		return nil, err
	}
	resp, err := req.SetPathParam("id", candidateID).Get(path)
	return s.finish(resp, err, "GET "+path)
}

func (s *BackendService) post(ctx context.Context, sess *session.Session, path, candidateID string, stage int, body any) error {
	req, err := s.request(ctx, sess)
	if err != nil {
		return err
	}
	resp, err := req.
		SetPathParams(map[string]string{"id": candidateID, "stage": strconv.Itoa(stage)}).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	_, err = s.finish(resp, err, "POST "+path)
	return err
}

func (s *BackendService) request(ctx context.Context, sess *session.Session) (*resty.Request, error) {
	if !sess.Active() {
		return nil, ErrSessionClosed
	}
	if open, n := s.circuitState(); open {
		return nil, fmt.Errorf("%w: %d consecutive errors", ErrCircuitOpen, n)
	}
	return s.client.R().SetContext(ctx).SetAuthToken(sess.Token()), nil
}

// finish classifies the outcome and feeds the circuit breaker. Only
// transport errors and 5xx count as backend failures.
func (s *BackendService) finish(resp *resty.Response, err error, op string) ([]byte, error) {
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.recordFailure()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.IsError() {
		if resp.StatusCode() >= http.StatusInternalServerError {
			s.recordFailure()
		} else {
			s.recordSuccess()
		}
		upstream := &UpstreamError{
			Status:  resp.StatusCode(),
			Message: gjson.GetBytes(resp.Body(), "message").String(),
		}
		log.Warnf("backend %s failed: %v", op, upstream)
		return nil, upstream
	}

	s.recordSuccess()
	return resp.Body(), nil
}

// circuitState reports whether calls are blocked. Once the cooldown has
// passed the breaker is half-open: every call is let through until one of
// them records an outcome, which closes or re-arms it. A status fetch and a
// schedule fetch always travel together, so a single trial slot would starve.
func (s *BackendService) circuitState() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.circuitBreakerMax <= 0 || s.consecutiveErrors < s.circuitBreakerMax || s.halfOpen {
		return false, s.consecutiveErrors
	}
	if time.Since(s.lastFailure) >= s.cooldown {
		s.halfOpen = true
		log.Infof("backend circuit breaker half-open after %s", s.cooldown)
		return false, s.consecutiveErrors
	}
	return true, s.consecutiveErrors
}

func (s *BackendService) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveErrors++
	s.lastFailure = time.Now()
	s.halfOpen = false
}

func (s *BackendService) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveErrors = 0
	s.halfOpen = false
}

func (s *BackendService) ResetCircuitBreaker() {
	s.recordSuccess()
	log.Info("backend circuit breaker reset")
}

func (s *BackendService) GetCircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tripped := s.circuitBreakerMax > 0 && s.consecutiveErrors >= s.circuitBreakerMax
	return s.consecutiveErrors, tripped && !s.halfOpen && time.Since(s.lastFailure) < s.cooldown
}
