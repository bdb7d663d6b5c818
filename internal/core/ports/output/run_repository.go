package ports

import (
	"context"

	"github.com/google/uuid"

	"workspace-promoter/internal/core/domain"
)

// RunRepository stores promotion run records and their reports. Only run
// reports are persisted; mapping tables and credentials never are.
type RunRepository interface {
	Create(ctx context.Context, run *domain.PromotionRun) error
	Complete(ctx context.Context, id uuid.UUID, status domain.RunStatus, report *domain.RunReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PromotionRun, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.PromotionRun, error)
}
