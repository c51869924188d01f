package repository

import (
	"sort"
	"sync"

	"github.com/fadilmartias/mentor-progress/internal/model"
	"github.com/google/uuid"
)

// MemorySnapshotRepository keeps snapshots in process. It is used when no
// database is configured and in tests.
type MemorySnapshotRepository struct {
	mu   sync.Mutex
	rows map[string]model.ProgressSnapshot
}

func NewMemorySnapshotRepository() *MemorySnapshotRepository {
	return &MemorySnapshotRepository{rows: make(map[string]model.ProgressSnapshot)}
}

func (r *MemorySnapshotRepository) SaveIfNewer(snapshot *model.ProgressSnapshot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.rows[snapshot.CandidateID]
	if ok && !existing.FetchedAt.Before(snapshot.FetchedAt) {
		return false, nil
	}
	if ok {
		snapshot.ID = existing.ID
		snapshot.CreatedAt = existing.CreatedAt
	} else if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	r.rows[snapshot.CandidateID] = *snapshot
	return true, nil
}

func (r *MemorySnapshotRepository) FindByCandidateID(candidateID string) (*model.ProgressSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.rows[candidateID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return &s, nil
}

func (r *MemorySnapshotRepository) List(page, pageSize int) ([]model.ProgressSnapshot, int64, error) {
	r.mu.Lock()
	all := make([]model.ProgressSnapshot, 0, len(r.rows))
	for _, s := range r.rows {
		all = append(all, s)
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].FetchedAt.After(all[j].FetchedAt) })

	start := (page - 1) * pageSize
	if start >= len(all) {
		return []model.ProgressSnapshot{}, int64(len(all)), nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

// MemoryCallRequestRepository is the in-process counterpart of CallRequestRepository.
type MemoryCallRequestRepository struct {
	mu   sync.Mutex
	rows []model.CallRequest
}

func NewMemoryCallRequestRepository() *MemoryCallRequestRepository {
	return &MemoryCallRequestRepository{}
}

func (r *MemoryCallRequestRepository) Create(req *model.CallRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	r.rows = append(r.rows, *req)
	return nil
}

func (r *MemoryCallRequestRepository) Update(req *model.CallRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == req.ID {
			r.rows[i] = *req
			return nil
		}
	}
	r.rows = append(r.rows, *req)
	return nil
}

func (r *MemoryCallRequestRepository) ListByCandidate(candidateID string) ([]model.CallRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.CallRequest{}
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].CandidateID == candidateID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}
