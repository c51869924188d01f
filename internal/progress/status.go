// Package progress holds the milestone progression rules for the five
// mentoring calls a candidate works through.
package progress

import (
	"fmt"
	"time"
)

const (
	// StageCount is the number of mentoring calls in a candidate's journey.
	StageCount = 5
	FirstStage = 1
	FinalStage = StageCount
)

// ValidStage reports whether n is a mentoring call number.
func ValidStage(n int) bool {
	return n >= FirstStage && n <= FinalStage
}

// CallStage is the backend's view of one mentoring call.
type CallStage struct {
	Eligible    bool       `json:"eligible"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Completed reports whether the call has already happened.
func (c CallStage) Completed() bool {
	return c.CompletedAt != nil && !c.CompletedAt.IsZero()
}

// CandidateStatus is a snapshot of one candidate's journey as reported by the backend.
// Missing milestone keys read as false.
type CandidateStatus struct {
	Milestones map[Milestone]bool    `json:"milestones"`
	Calls      [StageCount]CallStage `json:"calls"`
}

// NewCandidateStatus returns a status with every flag unset.
func NewCandidateStatus() CandidateStatus {
	return CandidateStatus{Milestones: make(map[Milestone]bool, len(AllMilestones))}
}

// Has reports whether milestone m is complete.
func (s CandidateStatus) Has(m Milestone) bool {
	return s.Milestones[m]
}

// Set marks a milestone. Unknown keys are ignored. It allocates the map on
// first use.
func (s *CandidateStatus) Set(m Milestone, done bool) {
	if !m.Valid() {
		return
	}
	if s.Milestones == nil {
		s.Milestones = make(map[Milestone]bool, len(AllMilestones))
	}
	s.Milestones[m] = done
}

// Call returns the stage record for a call number.
func (s CandidateStatus) Call(stage int) CallStage {
	if !ValidStage(stage) {
		return CallStage{}
	}
	return s.Calls[stage-1]
}

// SetCall replaces the stage record for a call number.
func (s *CandidateStatus) SetCall(stage int, call CallStage) error {
	if !ValidStage(stage) {
		return fmt.Errorf("stage %d out of range", stage)
	}
	s.Calls[stage-1] = call
	return nil
}

// ScheduledCall is a call with a confirmed slot that has not happened yet.
type ScheduledCall struct {
	Stage       int       `json:"stage"`
	ScheduledAt time.Time `json:"scheduled_at"`
	MeetingLink string    `json:"meeting_link,omitempty"`
}

// ScheduledStages collects the distinct, valid stage numbers of the given calls.
func ScheduledStages(calls []ScheduledCall) map[int]bool {
	out := make(map[int]bool, len(calls))
	for _, c := range calls {
		if ValidStage(c.Stage) {
			out[c.Stage] = true
		}
	}
	return out
}
