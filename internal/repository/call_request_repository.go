package repository

import (
	"github.com/fadilmartias/mentor-progress/internal/model"
	"gorm.io/gorm"
)

type CallRequestRepository struct {
	db *gorm.DB
}

func NewCallRequestRepository(db *gorm.DB) *CallRequestRepository {
	return &CallRequestRepository{db}
}

func (r *CallRequestRepository) Create(req *model.CallRequest) error {
	return r.db.Create(req).Error
}

func (r *CallRequestRepository) Update(req *model.CallRequest) error {
	return r.db.Save(req).Error
}

func (r *CallRequestRepository) ListByCandidate(candidateID string) ([]model.CallRequest, error) {
	var reqs []model.CallRequest
	err := r.db.Where("candidate_id = ?", candidateID).Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}
