package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fadilmartias/mentor-progress/internal/model"
	"github.com/fadilmartias/mentor-progress/internal/progress"
	"github.com/fadilmartias/mentor-progress/internal/repository"
	"github.com/fadilmartias/mentor-progress/internal/response"
	"github.com/fadilmartias/mentor-progress/internal/service"
	"github.com/fadilmartias/mentor-progress/internal/session"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/errgroup"
)

type SnapshotStore interface {
	SaveIfNewer(snapshot *model.ProgressSnapshot) (bool, error)
	FindByCandidateID(candidateID string) (*model.ProgressSnapshot, error)
	List(page, pageSize int) ([]model.ProgressSnapshot, int64, error)
}

type CallRequestStore interface {
	Create(req *model.CallRequest) error
	Update(req *model.CallRequest) error
	ListByCandidate(candidateID string) ([]model.CallRequest, error)
}

// ProgressOverview is everything the progress pages render for one candidate.
type ProgressOverview struct {
	CandidateID         string                   `json:"candidate_id"`
	ProgressPercent     float64                  `json:"progress_percent"`
	CompletedMilestones int                      `json:"completed_milestones"`
	TotalMilestones     int                      `json:"total_milestones"`
	Milestones          []progress.ChecklistItem `json:"milestones"`
	Timeline            []progress.TimelineEntry `json:"timeline"`
	NextCall            progress.NextCallView    `json:"next_call"`
	CallRequests        []model.CallRequest      `json:"call_requests,omitempty"`
	FetchedAt           time.Time                `json:"fetched_at"`
}

type ProgressUsecase struct {
	backend   service.BackendServiceInterface
	snapshots SnapshotStore
	requests  CallRequestStore
	now       func() time.Time
}

func NewProgressUsecase(backend service.BackendServiceInterface, snapshots SnapshotStore, requests CallRequestStore) *ProgressUsecase {
	return &ProgressUsecase{backend: backend, snapshots: snapshots, requests: requests, now: time.Now}
}

// loaded is one consistent status + schedule pair.
type loaded struct {
	status    progress.CandidateStatus
	scheduled []progress.ScheduledCall
	fetchedAt time.Time
}

func (l loaded) nextCall() progress.NextCallView {
	return progress.ComputeNextCall(l.status, progress.ScheduledStages(l.scheduled))
}

func (uc *ProgressUsecase) NextCall(ctx context.Context, sess *session.Session, candidateID string) (progress.NextCallView, error) {
	if !sess.CanAccessCandidate(candidateID) {
		return progress.NextCallView{}, ErrForbidden
	}
	l, err := uc.load(ctx, sess, candidateID)
	if err != nil {
		return progress.NextCallView{}, err
	}
	return l.nextCall(), nil
}

func (uc *ProgressUsecase) Progress(ctx context.Context, sess *session.Session, candidateID string) (*ProgressOverview, error) {
	if !sess.CanAccessCandidate(candidateID) {
		return nil, ErrForbidden
	}
	l, err := uc.load(ctx, sess, candidateID)
	if err != nil {
		return nil, err
	}

	overview := &ProgressOverview{
		CandidateID:         candidateID,
		ProgressPercent:     round2(progress.ProgressPercent(l.status)),
		CompletedMilestones: progress.CompletedMilestones(l.status),
		TotalMilestones:     len(progress.AllMilestones),
		Milestones:          progress.MilestoneChecklist(l.status),
		Timeline:            progress.Timeline(l.status, l.scheduled),
		NextCall:            l.nextCall(),
		FetchedAt:           l.fetchedAt,
	}

	if sess.Is(session.RoleMentor, session.RoleAdmin) {
		reqs, err := uc.requests.ListByCandidate(candidateID)
		if err != nil {
			log.Warnf("list call requests for %s: %v", candidateID, err)
		}
		overview.CallRequests = reqs
	}
	return overview, nil
}

// BookCall asks the backend to book stage for the candidate. The backend
// re-validates eligibility; nothing is changed locally until the status is
// fetched again.
func (uc *ProgressUsecase) BookCall(ctx context.Context, sess *session.Session, candidateID string, stage int) (progress.NextCallView, error) {
	if !progress.ValidStage(stage) {
		return progress.NextCallView{}, &ValidationError{Field: "stage", Message: fmt.Sprintf("must be between %d and %d", progress.FirstStage, progress.FinalStage)}
	}
	if !sess.CanAccessCandidate(candidateID) {
		return progress.NextCallView{}, ErrForbidden
	}

	req := &model.CallRequest{
		CandidateID: candidateID,
		Stage:       stage,
		Kind:        model.CallRequestBook,
		RequestedBy: sess.UserID,
		Role:        string(sess.Role),
	}
	if err := uc.submit(req, func() error {
		return uc.backend.BookCall(ctx, sess, candidateID, stage)
	}); err != nil {
		return progress.NextCallView{}, err
	}

	l, err := uc.load(ctx, sess, candidateID)
	if err != nil {
		return progress.NextCallView{}, fmt.Errorf("call booked but refresh failed: %w", err)
	}
	return l.nextCall(), nil
}

// EligibleCalls returns the backend's list of schedulable stages as is.
func (uc *ProgressUsecase) EligibleCalls(ctx context.Context, sess *session.Session, candidateID string) ([]int, error) {
	if !sess.Is(session.RoleMentor, session.RoleAdmin) {
		return nil, ErrForbidden
	}
	return uc.backend.FetchEligibleCalls(ctx, sess, candidateID)
}

// ScheduleCall books a slot on behalf of a candidate. The stage must be in
// the backend's eligible list; it is never recomputed here.
func (uc *ProgressUsecase) ScheduleCall(ctx context.Context, sess *session.Session, candidateID string, in service.ScheduleCallInput) (*ProgressOverview, error) {
	if !sess.Is(session.RoleMentor, session.RoleAdmin) {
		return nil, ErrForbidden
	}
	if !progress.ValidStage(in.Stage) {
		return nil, &ValidationError{Field: "stage", Message: fmt.Sprintf("must be between %d and %d", progress.FirstStage, progress.FinalStage)}
	}

	eligible, err := uc.backend.FetchEligibleCalls(ctx, sess, candidateID)
	if err != nil {
		return nil, err
	}
	if !containsStage(eligible, in.Stage) {
		return nil, fmt.Errorf("%w: call %d (eligible: %v)", ErrStageNotEligible, in.Stage, eligible)
	}

	at := in.ScheduledAt
	req := &model.CallRequest{
		CandidateID: candidateID,
		Stage:       in.Stage,
		Kind:        model.CallRequestSchedule,
		RequestedBy: sess.UserID,
		Role:        string(sess.Role),
		ScheduledAt: &at,
		MeetingLink: in.MeetingLink,
	}
	if err := uc.submit(req, func() error {
		return uc.backend.ScheduleCall(ctx, sess, candidateID, in)
	}); err != nil {
		return nil, err
	}

	return uc.Progress(ctx, sess, candidateID)
}

func (uc *ProgressUsecase) ListSnapshots(sess *session.Session, page, pageSize int) ([]model.ProgressSnapshot, *response.Pagination, error) {
	if !sess.Is(session.RoleAdmin) {
		return nil, nil, ErrForbidden
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	snapshots, total, err := uc.snapshots.List(page, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return snapshots, response.NewPagination(page, pageSize, total, len(snapshots)), nil
}

// submit records req, runs send and stores the outcome. Audit write
// failures are logged and do not block the mutation.
func (uc *ProgressUsecase) submit(req *model.CallRequest, send func() error) error {
	req.Status = model.CallRequestSubmitted
	req.CreatedAt = uc.now()
	req.UpdatedAt = req.CreatedAt
	if err := uc.requests.Create(req); err != nil {
		log.Warnf("record call request for %s: %v", req.CandidateID, err)
	}

	sendErr := send()
	switch {
	case sendErr == nil:
		req.Status = model.CallRequestConfirmed
	case isRejection(sendErr):
		req.Status = model.CallRequestRejected
		req.Detail = sendErr.Error()
	default:
		req.Status = model.CallRequestFailed
		req.Detail = sendErr.Error()
	}
	req.UpdatedAt = uc.now()
	if err := uc.requests.Update(req); err != nil {
		log.Warnf("update call request for %s: %v", req.CandidateID, err)
	}

	if sendErr != nil {
		log.Infof("%s call %d for %s %s: %v", req.Kind, req.Stage, req.CandidateID, req.Status, sendErr)
	}
	return sendErr
}

// load fetches status and schedule together and stores them unless a newer
// snapshot is already stored, in which case that one is returned instead.
func (uc *ProgressUsecase) load(ctx context.Context, sess *session.Session, candidateID string) (loaded, error) {
	fetchedAt := uc.now()

	var (
		l           = loaded{fetchedAt: fetchedAt}
		rawStatus   []byte
		rawSchedule []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		l.status, rawStatus, err = uc.backend.FetchStatus(gctx, sess, candidateID)
		return err
	})
	g.Go(func() error {
		var err error
		l.scheduled, rawSchedule, err = uc.backend.FetchScheduledCalls(gctx, sess, candidateID)
		return err
	})
	if err := g.Wait(); err != nil {
		return loaded{}, err
	}

	next := l.nextCall()
	snapshot := &model.ProgressSnapshot{
		CandidateID:     candidateID,
		Status:          string(rawStatus),
		ScheduledCalls:  string(rawSchedule),
		ProgressPercent: round2(progress.ProgressPercent(l.status)),
		NextStage:       next.Stage,
		ReadyToBook:     next.ReadyToBook,
		FetchedAt:       fetchedAt,
		CreatedAt:       fetchedAt,
		UpdatedAt:       uc.now(),
	}

	saved, err := uc.snapshots.SaveIfNewer(snapshot)
	if err != nil {
		log.Warnf("save snapshot for %s: %v", candidateID, err)
		return l, nil
	}
	if saved {
		return l, nil
	}

	newer, err := uc.restore(candidateID)
	if err != nil {
		log.Warnf("restore newer snapshot for %s: %v", candidateID, err)
		return l, nil
	}
	log.Debugf("discarded stale fetch for %s started %s", candidateID, fetchedAt.Format(time.RFC3339Nano))
	return newer, nil
}

func (uc *ProgressUsecase) restore(candidateID string) (loaded, error) {
	stored, err := uc.snapshots.FindByCandidateID(candidateID)
	if err != nil {
		return loaded{}, err
	}
	status, err := progress.ParseStatus([]byte(stored.Status))
	if err != nil {
		return loaded{}, err
	}
	scheduled, err := progress.ParseScheduledCalls([]byte(stored.ScheduledCalls))
	if err != nil {
		return loaded{}, err
	}
	return loaded{status: status, scheduled: scheduled, fetchedAt: stored.FetchedAt}, nil
}

func isRejection(err error) bool {
	var upstream *service.UpstreamError
	if !errors.As(err, &upstream) {
		return false
	}
	return upstream.Status >= 400 && upstream.Status < 500
}

func containsStage(stages []int, stage int) bool {
	for _, s := range stages {
		if s == stage {
			return true
		}
	}
	return false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

var _ SnapshotStore = (*repository.ProgressSnapshotRepository)(nil)
var _ CallRequestStore = (*repository.CallRequestRepository)(nil)
