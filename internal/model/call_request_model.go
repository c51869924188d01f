package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	CallRequestBook     = "book"
	CallRequestSchedule = "schedule"

	CallRequestSubmitted = "submitted"
	CallRequestConfirmed = "confirmed"
	CallRequestRejected  = "rejected"
	CallRequestFailed    = "failed"
)

// CallRequest audits a booking or scheduling mutation forwarded to the backend.
type CallRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CandidateID string     `gorm:"type:varchar(64);index" json:"candidate_id"`
	Stage       int        `gorm:"not null" json:"stage"`
	Kind        string     `gorm:"type:varchar(20)" json:"kind"`   // "book" or "schedule"
	Status      string     `gorm:"type:varchar(20)" json:"status"` // e.g. "submitted", "confirmed", "rejected", "failed"
	RequestedBy uuid.UUID  `gorm:"type:uuid" json:"requested_by"`
	Role        string     `gorm:"type:varchar(20)" json:"role"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	MeetingLink string     `gorm:"type:text" json:"meeting_link,omitempty"`
	Detail      string     `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
