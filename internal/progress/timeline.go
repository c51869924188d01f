package progress

import "time"

// StageState summarizes where a call sits in the candidate's journey.
type StageState string

const (
	StateCompleted StageState = "completed"
	StateScheduled StageState = "scheduled"
	StateEligible  StageState = "eligible"
	StateLocked    StageState = "locked"
)

// TimelineEntry is one row of the per-stage overview shown to mentors and admins.
type TimelineEntry struct {
	Stage              int             `json:"stage"`
	Label              string          `json:"label"`
	State              StageState      `json:"state"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	ScheduledAt        *time.Time      `json:"scheduled_at,omitempty"`
	MeetingLink        string          `json:"meeting_link,omitempty"`
	RequiredMilestones []ChecklistItem `json:"required_milestones"`
}

// Timeline lists all five calls with their state. Completion wins over a
// schedule entry for the same stage; eligibility is taken as reported.
func Timeline(status CandidateStatus, scheduled []ScheduledCall) []TimelineEntry {
	slots := make(map[int]ScheduledCall, len(scheduled))
	for _, c := range scheduled {
		if !ValidStage(c.Stage) {
			continue
		}
		// keep the earliest slot when the backend reports duplicates
		if prev, ok := slots[c.Stage]; ok && !c.ScheduledAt.Before(prev.ScheduledAt) {
			continue
		}
		slots[c.Stage] = c
	}

	entries := make([]TimelineEntry, 0, StageCount)
	for stage := FirstStage; stage <= FinalStage; stage++ {
		call := status.Call(stage)
		entry := TimelineEntry{
			Stage:              stage,
			Label:              StageLabel(stage),
			RequiredMilestones: buildChecklist(status, RequiredMilestones(stage)),
		}

		slot, isScheduled := slots[stage]
		if isScheduled {
			at := slot.ScheduledAt
			entry.ScheduledAt = &at
			entry.MeetingLink = slot.MeetingLink
		}

		switch {
		case call.Completed():
			at := *call.CompletedAt
			entry.CompletedAt = &at
			entry.State = StateCompleted
		case isScheduled:
			entry.State = StateScheduled
		case call.Eligible:
			entry.State = StateEligible
		default:
			entry.State = StateLocked
		}
		entries = append(entries, entry)
	}
	return entries
}
