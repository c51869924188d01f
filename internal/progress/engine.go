package progress

import (
	"fmt"
	"strings"
)

// ChecklistItem is one milestone line shown next to a call.
type ChecklistItem struct {
	Milestone Milestone `json:"key"`
	Label     string    `json:"label"`
	Completed bool      `json:"completed"`
}

// NextCallView describes the call a candidate should work toward next.
// Every field is always populated.
type NextCallView struct {
	Stage         int             `json:"stage"`
	Label         string          `json:"label"`
	Checklist     []ChecklistItem `json:"checklist"`
	ReadyToBook   bool            `json:"ready_to_book"`
	AlreadyBooked bool            `json:"already_booked"`
	Scheduled     bool            `json:"scheduled"`
	Message       string          `json:"message"`
}

const finalCallMessage = "Congratulations on reaching your final mentor call! " +
	"This session is about preparing you for offers, negotiation and your next steps."

var ordinals = [StageCount]string{"first", "second", "third", "fourth", "fifth"}

// Ordinal returns the spelled out ordinal of a stage ("first" ... "fifth").
func Ordinal(stage int) string {
	if !ValidStage(stage) {
		return fmt.Sprintf("#%d", stage)
	}
	return ordinals[stage-1]
}

// StageLabel is the display name of a mentoring call.
func StageLabel(stage int) string {
	o := Ordinal(stage)
	return strings.ToUpper(o[:1]) + o[1:] + " Mentor Call"
}

// ComputeNextCall picks the single call a candidate should work toward.
//
// Stages are scanned in order, skipping completed and scheduled ones. The
// scan stops at the first remaining stage even when it is locked; later
// stages are never considered. When every stage is completed or scheduled
// the first such open stage is used, and failing that stage 1.
func ComputeNextCall(status CandidateStatus, scheduled map[int]bool) NextCallView {
	selected := 0
	var checklist []ChecklistItem

	for stage := FirstStage; stage <= FinalStage; stage++ {
		call := status.Call(stage)
		if call.Completed() || scheduled[stage] {
			continue
		}

		required := RequiredMilestones(stage)
		switch {
		case len(required) == 0 && call.Eligible:
			selected = stage
		case len(required) > 0 && allDone(status, required) && call.Eligible:
			selected = stage
		case !call.Eligible && len(required) > 0:
			selected = stage
			checklist = buildChecklist(status, required)
		}
		break
	}

	// The fallback stage shows no checklist; unmet prerequisites still
	// appear in the message.
	if selected == 0 {
		selected = fallbackStage(status, scheduled)
	}

	call := status.Call(selected)
	if checklist == nil {
		checklist = []ChecklistItem{}
	}

	return NextCallView{
		Stage:         selected,
		Label:         StageLabel(selected),
		Checklist:     checklist,
		ReadyToBook:   call.Eligible && len(checklist) == 0,
		AlreadyBooked: call.Completed(),
		Scheduled:     scheduled[selected],
		Message:       preparationMessage(status, selected, call.Eligible),
	}
}

func fallbackStage(status CandidateStatus, scheduled map[int]bool) int {
	for stage := FirstStage; stage <= FinalStage; stage++ {
		if !status.Call(stage).Completed() && !scheduled[stage] {
			return stage
		}
	}
	return FirstStage
}

func allDone(status CandidateStatus, required []Milestone) bool {
	for _, m := range required {
		if !status.Has(m) {
			return false
		}
	}
	return true
}

func buildChecklist(status CandidateStatus, required []Milestone) []ChecklistItem {
	items := make([]ChecklistItem, 0, len(required))
	for _, m := range required {
		items = append(items, ChecklistItem{Milestone: m, Label: m.Label(), Completed: status.Has(m)})
	}
	return items
}

func preparationMessage(status CandidateStatus, stage int, eligible bool) string {
	if stage == FinalStage {
		return finalCallMessage
	}

	var pending []string
	for _, m := range RequiredMilestones(stage) {
		if !status.Has(m) {
			pending = append(pending, m.Label())
		}
	}
	if len(pending) == 0 {
		if !eligible {
			return fmt.Sprintf("Every milestone for your %s mentor call is complete. Our team will unlock booking shortly.", Ordinal(stage))
		}
		return fmt.Sprintf("You're all set for your %s mentor call.", Ordinal(stage))
	}
	return fmt.Sprintf(
		"Before you meet your mentor for your %s mentor call, our team will ensure that these milestones are completed: %s.",
		Ordinal(stage), strings.Join(pending, ", "),
	)
}

// CompletedMilestones counts the milestone flags that are set.
func CompletedMilestones(status CandidateStatus) int {
	n := 0
	for _, m := range AllMilestones {
		if status.Has(m) {
			n++
		}
	}
	return n
}

// ProgressPercent is the share of completed milestones, 0..100.
func ProgressPercent(status CandidateStatus) float64 {
	return float64(CompletedMilestones(status)) / float64(len(AllMilestones)) * 100
}

// MilestoneChecklist returns every milestone in display order with its state.
func MilestoneChecklist(status CandidateStatus) []ChecklistItem {
	return buildChecklist(status, AllMilestones)
}
