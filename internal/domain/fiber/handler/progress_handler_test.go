package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fadilmartias/mentor-progress/internal/config"
	"github.com/fadilmartias/mentor-progress/internal/repository"
	"github.com/fadilmartias/mentor-progress/internal/service"
	"github.com/fadilmartias/mentor-progress/internal/session"
	"github.com/fadilmartias/mentor-progress/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("RATE_LIMIT_BOOK_MAX", "100")
	os.Exit(m.Run())
}

// platform is a fake of the REST backend keyed by candidate id.
type platform struct {
	mu        sync.Mutex
	scheduled map[string][]string
	bookCode  int
}

func (p *platform) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /candidates/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"orientation":true,"resumeRebuilding":true,"mentorCall1Eligible":true}}`)
	})
	mux.HandleFunc("GET /candidates/{id}/scheduled-calls", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		fmt.Fprintf(w, "[%s]", strings.Join(p.scheduled[r.PathValue("id")], ","))
	})
	mux.HandleFunc("GET /candidates/{id}/eligible-calls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"eligibleCalls":[1]}`)
	})
	mux.HandleFunc("POST /candidates/{id}/calls/{stage}/book", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.bookCode != 0 {
			w.WriteHeader(p.bookCode)
			fmt.Fprint(w, `{"message":"call already booked"}`)
			return
		}
		id := r.PathValue("id")
		p.scheduled[id] = append(p.scheduled[id], fmt.Sprintf(`{"callNumber":%s,"scheduledAt":"2026-11-01T10:00:00Z"}`, r.PathValue("stage")))
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /candidates/{id}/calls/{stage}/schedule", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			CallNumber  int    `json:"callNumber"`
			ScheduledAt string `json:"scheduledAt"`
			MeetingLink string `json:"meetingLink"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		id := r.PathValue("id")
		p.scheduled[id] = append(p.scheduled[id], fmt.Sprintf(`{"callNumber":%d,"scheduledAt":%q,"meetingLink":%q}`, body.CallNumber, body.ScheduledAt, body.MeetingLink))
		w.WriteHeader(http.StatusCreated)
	})
	return mux
}

type fixture struct {
	app       *fiber.App
	authority *session.Authority
	platform  *platform
	backend   *service.BackendService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := &platform{scheduled: map[string][]string{}}
	srv := httptest.NewServer(p.handler())
	t.Cleanup(srv.Close)

	backend, err := service.NewBackendService(&config.BackendConfig{
		BaseURL:           srv.URL,
		Timeout:           2 * time.Second,
		RetryWait:         time.Millisecond,
		RetryMaxWait:      5 * time.Millisecond,
		CircuitBreakerMax: 5,
	})
	require.NoError(t, err)

	authority, err := session.NewAuthority("handler-test-secret", time.Hour, "test")
	require.NoError(t, err)

	uc := usecase.NewProgressUsecase(backend, repository.NewMemorySnapshotRepository(), repository.NewMemoryCallRequestRepository())
	app := fiber.New()
	NewProgressHandler(uc, backend).RegisterRoutes(app, authority)
	return &fixture{app: app, authority: authority, platform: p, backend: backend}
}

func (f *fixture) token(t *testing.T, role session.Role) (string, string) {
	t.Helper()
	id := uuid.New()
	token, err := f.authority.Issue(id, role)
	require.NoError(t, err)
	return id.String(), token
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Details    map[string]any  `json:"details"`
	Pagination map[string]any  `json:"pagination"`
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type nextCallBody struct {
	Stage       int    `json:"stage"`
	ReadyToBook bool   `json:"ready_to_book"`
	Scheduled   bool   `json:"scheduled"`
	Message     string `json:"message"`
	Checklist   []struct {
		Key string `json:"key"`
	} `json:"checklist"`
}

func TestMyNextCall(t *testing.T) {
	f := newFixture(t)
	_, token := f.token(t, session.RoleCandidate)

	code, env := f.do(t, http.MethodGet, "/api/v1/me/next-call", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	view := decode[nextCallBody](t, env.Data)
	assert.Equal(t, 1, view.Stage)
	assert.True(t, view.ReadyToBook)
	assert.Empty(t, view.Checklist)
	assert.Equal(t, "You're all set for your first mentor call.", view.Message)
}

func TestRoutes_RequireToken(t *testing.T) {
	f := newFixture(t)
	code, env := f.do(t, http.MethodGet, "/api/v1/me/next-call", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
}

func TestRoutes_RoleGuards(t *testing.T) {
	f := newFixture(t)
	candidateID, candidate := f.token(t, session.RoleCandidate)
	_, mentor := f.token(t, session.RoleMentor)

	code, _ := f.do(t, http.MethodGet, "/api/v1/candidates/"+candidateID+"/progress", candidate, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = f.do(t, http.MethodGet, "/api/v1/me/progress", mentor, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = f.do(t, http.MethodGet, "/api/v1/admin/snapshots", mentor, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestCandidateProgress(t *testing.T) {
	f := newFixture(t)
	candidateID := uuid.NewString()
	_, mentor := f.token(t, session.RoleMentor)

	code, env := f.do(t, http.MethodGet, "/api/v1/candidates/"+candidateID+"/progress", mentor, nil)
	require.Equal(t, http.StatusOK, code)

	overview := decode[struct {
		CandidateID         string  `json:"candidate_id"`
		ProgressPercent     float64 `json:"progress_percent"`
		CompletedMilestones int     `json:"completed_milestones"`
		TotalMilestones     int     `json:"total_milestones"`
		Timeline            []any   `json:"timeline"`
	}](t, env.Data)
	assert.Equal(t, candidateID, overview.CandidateID)
	assert.Equal(t, 2, overview.CompletedMilestones)
	assert.Equal(t, 7, overview.TotalMilestones)
	assert.InDelta(t, 28.57, overview.ProgressPercent, 0.001)
	assert.Len(t, overview.Timeline, 5)

	code, env = f.do(t, http.MethodGet, "/api/v1/candidates/not-a-uuid/next-call", mentor, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Details, "id")
}

func TestBookCall(t *testing.T) {
	f := newFixture(t)
	_, token := f.token(t, session.RoleCandidate)

	code, env := f.do(t, http.MethodPost, "/api/v1/me/calls/abc/book", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Details, "stage")

	code, _ = f.do(t, http.MethodPost, "/api/v1/me/calls/9/book", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodPost, "/api/v1/me/calls/1/book", token, nil)
	require.Equal(t, http.StatusAccepted, code)
	view := decode[nextCallBody](t, env.Data)
	assert.Equal(t, 2, view.Stage, "stage 1 is now scheduled so the view moves on")
	assert.False(t, view.ReadyToBook)
	assert.Len(t, view.Checklist, 2)
}

func TestBookCall_BackendRejects(t *testing.T) {
	f := newFixture(t)
	f.platform.bookCode = http.StatusConflict
	_, token := f.token(t, session.RoleCandidate)

	code, env := f.do(t, http.MethodPost, "/api/v1/me/calls/1/book", token, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, env.Message, "call already booked")
}

func TestEligibleCalls(t *testing.T) {
	f := newFixture(t)
	_, admin := f.token(t, session.RoleAdmin)
	candidateID := uuid.NewString()

	code, env := f.do(t, http.MethodGet, "/api/v1/candidates/"+candidateID+"/eligible-calls", admin, nil)
	require.Equal(t, http.StatusOK, code)
	data := decode[struct {
		EligibleCalls []int `json:"eligible_calls"`
	}](t, env.Data)
	assert.Equal(t, []int{1}, data.EligibleCalls)
}

func TestScheduleCall(t *testing.T) {
	f := newFixture(t)
	_, mentor := f.token(t, session.RoleMentor)
	candidateID := uuid.NewString()
	path := "/api/v1/candidates/" + candidateID + "/calls/schedule"

	code, env := f.do(t, http.MethodPost, path, mentor, map[string]any{"stage": 7})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Details, "stage")
	assert.Contains(t, env.Details, "scheduled_at")

	code, _ = f.do(t, http.MethodPost, path, mentor, map[string]any{
		"stage":        2,
		"scheduled_at": "2026-11-02T09:00:00Z",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, env = f.do(t, http.MethodPost, path, mentor, map[string]any{
		"stage":        1,
		"scheduled_at": "2026-11-02T09:00:00Z",
		"meeting_link": "https://meet.example.com/abc",
	})
	require.Equal(t, http.StatusCreated, code)
	overview := decode[struct {
		NextCall     nextCallBody `json:"next_call"`
		CallRequests []struct {
			Kind   string `json:"kind"`
			Status string `json:"status"`
		} `json:"call_requests"`
	}](t, env.Data)
	assert.Equal(t, 2, overview.NextCall.Stage)
	require.Len(t, overview.CallRequests, 1)
	assert.Equal(t, "schedule", overview.CallRequests[0].Kind)
	assert.Equal(t, "confirmed", overview.CallRequests[0].Status)
}

func TestListSnapshots(t *testing.T) {
	f := newFixture(t)
	_, admin := f.token(t, session.RoleAdmin)
	_, candidate := f.token(t, session.RoleCandidate)

	code, _ := f.do(t, http.MethodGet, "/api/v1/me/next-call", candidate, nil)
	require.Equal(t, http.StatusOK, code)

	code, env := f.do(t, http.MethodGet, "/api/v1/admin/snapshots?page=1&page_size=10", admin, nil)
	require.Equal(t, http.StatusOK, code)
	snapshots := decode[[]struct {
		NextStage   int  `json:"next_stage"`
		ReadyToBook bool `json:"ready_to_book"`
	}](t, env.Data)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 1, snapshots[0].NextStage)
	assert.True(t, snapshots[0].ReadyToBook)
	assert.EqualValues(t, 1, env.Pagination["total_items"])

	code, _ = f.do(t, http.MethodGet, "/api/v1/admin/snapshots?page_size=1000", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBackendStatus(t *testing.T) {
	f := newFixture(t)
	_, admin := f.token(t, session.RoleAdmin)

	code, env := f.do(t, http.MethodGet, "/api/v1/admin/backend", admin, nil)
	require.Equal(t, http.StatusOK, code)
	status := decode[map[string]any](t, env.Data)
	assert.Equal(t, false, status["circuit_open"])
	assert.EqualValues(t, 0, status["consecutive_failures"])

	code, env = f.do(t, http.MethodPost, "/api/v1/admin/backend/reset", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}
