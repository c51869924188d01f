package progress

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrMalformedPayload is returned when a backend body is not valid JSON.
var ErrMalformedPayload = errors.New("malformed payload")

func unwrap(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, ErrMalformedPayload
	}
	root := gjson.ParseBytes(body)
	if data := root.Get("data"); data.Exists() && (data.IsObject() || data.IsArray()) {
		return data, nil
	}
	return root, nil
}

// ParseStatus reads the backend's flat status record. Missing or non
// boolean milestone flags are false; missing, null or unparseable
// completion times leave the call incomplete.
func ParseStatus(body []byte) (CandidateStatus, error) {
	root, err := unwrap(body)
	if err != nil {
		return CandidateStatus{}, err
	}
	if !root.IsObject() {
		return CandidateStatus{}, fmt.Errorf("%w: status is not an object", ErrMalformedPayload)
	}

	status := NewCandidateStatus()
	for _, m := range AllMilestones {
		status.Set(m, root.Get(string(m)).Type == gjson.True)
	}
	for stage := FirstStage; stage <= FinalStage; stage++ {
		prefix := fmt.Sprintf("mentorCall%d", stage)
		call := CallStage{Eligible: root.Get(prefix+"Eligible").Type == gjson.True}
		if at, ok := parseTime(root.Get(prefix + "CompletedAt")); ok {
			call.CompletedAt = &at
		}
		if err := status.SetCall(stage, call); err != nil {
			return CandidateStatus{}, err
		}
	}
	return status, nil
}

// ParseScheduledCalls reads the backend's list of booked slots. Entries with
// an out of range call number are dropped.
func ParseScheduledCalls(body []byte) ([]ScheduledCall, error) {
	root, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	if root.IsObject() {
		root = root.Get("scheduledCalls")
	}

	calls := []ScheduledCall{}
	root.ForEach(func(_, v gjson.Result) bool {
		stage := int(v.Get("callNumber").Int())
		if !ValidStage(stage) {
			return true
		}
		call := ScheduledCall{Stage: stage, MeetingLink: v.Get("meetingLink").String()}
		if at, ok := parseTime(v.Get("scheduledAt")); ok {
			call.ScheduledAt = at
		}
		calls = append(calls, call)
		return true
	})
	return calls, nil
}

// ParseEligibleCalls reads the backend's authoritative list of schedulable
// stages, sorted and without duplicates.
func ParseEligibleCalls(body []byte) ([]int, error) {
	root, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	if root.IsObject() {
		root = root.Get("eligibleCalls")
	}

	seen := make(map[int]bool)
	stages := []int{}
	root.ForEach(func(_, v gjson.Result) bool {
		stage := int(v.Int())
		if ValidStage(stage) && !seen[stage] {
			seen[stage] = true
			stages = append(stages, stage)
		}
		return true
	})
	sort.Ints(stages)
	return stages, nil
}

func parseTime(v gjson.Result) (time.Time, bool) {
	if v.Type != gjson.String {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v.String())
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
