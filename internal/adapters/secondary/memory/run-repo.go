package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
)

// runRepo is the in-memory run store used when no database is configured.
type runRepo struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*domain.PromotionRun
}

func NewRunRepository() ports.RunRepository {
	return &runRepo{runs: make(map[uuid.UUID]*domain.PromotionRun)}
}

func (r *runRepo) Create(_ context.Context, run *domain.PromotionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

func (r *runRepo) Complete(_ context.Context, id uuid.UUID, status domain.RunStatus, report *domain.RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return domain.ErrRunNotFound
	}
	now := time.Now()
	run.Status = status
	run.Report = report
	run.FinishedAt = &now
	return nil
}

func (r *runRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PromotionRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	copied := *run
	return &copied, nil
}

func (r *runRepo) ListRecent(_ context.Context, limit int) ([]*domain.PromotionRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runs := make([]*domain.PromotionRun, 0, len(r.runs))
	for _, run := range r.runs {
		copied := *run
		runs = append(runs, &copied)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Ensure interface compliance
var _ ports.RunRepository = (*runRepo)(nil)
