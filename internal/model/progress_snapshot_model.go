package model

import (
	"time"

	"github.com/google/uuid"
)

// ProgressSnapshot is the latest status fetched for a candidate. FetchedAt
// is when the fetch started; only newer fetches may replace a row.
type ProgressSnapshot struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CandidateID     string    `gorm:"type:varchar(64);uniqueIndex" json:"candidate_id"`
	Status          string    `gorm:"type:jsonb" json:"status"`
	ScheduledCalls  string    `gorm:"type:jsonb" json:"scheduled_calls"`
	ProgressPercent float64   `gorm:"type:float" json:"progress_percent"`
	NextStage       int       `json:"next_stage"`
	ReadyToBook     bool      `json:"ready_to_book"`
	FetchedAt       time.Time `gorm:"index" json:"fetched_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (s *ProgressSnapshot) TableName() string {
	return "progress_snapshots"
}
