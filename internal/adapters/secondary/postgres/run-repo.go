package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
)

// runRepo persists promotion run records for the serve mode. Only the run
// record and its report are stored; mapping tables and credentials never
// touch the database.
type runRepo struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) ports.RunRepository {
	return &runRepo{pool: pool}
}

func (r *runRepo) Create(ctx context.Context, run *domain.PromotionRun) error {
	query := `
		INSERT INTO promotion_run
			(id, status, source_workspace_id, target_workspace_id, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID, string(run.Status),
		run.SourceWorkspaceID, run.TargetWorkspaceID, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("create promotion run: %w", err)
	}
	return nil
}

func (r *runRepo) Complete(ctx context.Context, id uuid.UUID, status domain.RunStatus, report *domain.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}

	query := `
		UPDATE promotion_run
		SET status = $2, report = $3, finished_at = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, string(status), reportJSON, time.Now())
	if err != nil {
		return fmt.Errorf("complete promotion run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PromotionRun, error) {
	query := `
		SELECT id, status, source_workspace_id, target_workspace_id,
		       report, started_at, finished_at
		FROM promotion_run
		WHERE id = $1
	`
	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("get promotion run: %w", err)
	}
	return run, nil
}

func (r *runRepo) ListRecent(ctx context.Context, limit int) ([]*domain.PromotionRun, error) {
	query := `
		SELECT id, status, source_workspace_id, target_workspace_id,
		       report, started_at, finished_at
		FROM promotion_run
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list promotion runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.PromotionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*domain.PromotionRun, error) {
	var (
		run        domain.PromotionRun
		status     string
		reportJSON []byte
	)
	if err := row.Scan(&run.ID, &status,
		&run.SourceWorkspaceID, &run.TargetWorkspaceID,
		&reportJSON, &run.StartedAt, &run.FinishedAt); err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	if len(reportJSON) > 0 {
		run.Report = &domain.RunReport{}
		if err := json.Unmarshal(reportJSON, run.Report); err != nil {
			return nil, fmt.Errorf("unmarshal run report: %w", err)
		}
	}
	return &run, nil
}

// Ensure interface compliance
var _ ports.RunRepository = (*runRepo)(nil)
