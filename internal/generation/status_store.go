package generation

import (
	"context"
	"errors"
	"sync"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
)

var ErrNoRun = errors.New("no generation run recorded for this plan")

// StatusStore keeps the latest RunStatus per plan.
type StatusStore interface {
	Save(ctx context.Context, status RunStatus) error
	// Get returns ErrNoRun when the plan was never sent.
	Get(ctx context.Context, ref domain.PlanRef) (*RunStatus, error)
}

// MemoryStatusStore is a process-local StatusStore. Statuses are lost on restart.
type MemoryStatusStore struct {
	mu       sync.RWMutex
	statuses map[string]RunStatus
}

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{statuses: make(map[string]RunStatus)}
}

func (s *MemoryStatusStore) Save(_ context.Context, status RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[string(status.Tier)+":"+status.PlanID] = status
	return nil
}

func (s *MemoryStatusStore) Get(_ context.Context, ref domain.PlanRef) (*RunStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[ref.String()]
	if !ok {
		return nil, ErrNoRun
	}
	return &status, nil
}
