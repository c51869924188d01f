package repository

import (
	"errors"

	"github.com/fadilmartias/mentor-progress/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

type ProgressSnapshotRepository struct {
	db *gorm.DB
}

func NewProgressSnapshotRepository(db *gorm.DB) *ProgressSnapshotRepository {
	return &ProgressSnapshotRepository{db}
}

// SaveIfNewer upserts the snapshot unless the stored row was fetched later.
// It reports whether the row was written.
func (r *ProgressSnapshotRepository) SaveIfNewer(snapshot *model.ProgressSnapshot) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "candidate_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "scheduled_calls", "progress_percent", "next_stage", "ready_to_book", "fetched_at", "updated_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "progress_snapshots.fetched_at < excluded.fetched_at"},
		}},
	}).Create(snapshot)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ProgressSnapshotRepository) FindByCandidateID(candidateID string) (*model.ProgressSnapshot, error) {
	var s model.ProgressSnapshot
	err := r.db.First(&s, "candidate_id = ?", candidateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns one page of snapshots, most recently fetched first.
func (r *ProgressSnapshotRepository) List(page, pageSize int) ([]model.ProgressSnapshot, int64, error) {
	var total int64
	if err := r.db.Model(&model.ProgressSnapshot{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var snapshots []model.ProgressSnapshot
	err := r.db.Order("fetched_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&snapshots).Error
	return snapshots, total, err
}
