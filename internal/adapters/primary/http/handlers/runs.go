package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"workspace-promoter/internal/adapters/primary/http/dto"
	"workspace-promoter/internal/core/domain"
)

// StartRun registers a new promotion run and executes it in the background.
// The run id is handed out immediately; progress is observed via GetRun.
func (h *Handler) StartRun(c *gin.Context) {
	run := &domain.PromotionRun{
		ID:                uuid.New(),
		Status:            domain.RunRunning,
		SourceWorkspaceID: h.source,
		TargetWorkspaceID: h.target,
		StartedAt:         time.Now(),
	}

	if err := h.runs.Create(c.Request.Context(), run); err != nil {
		log.WithError(err).Error("register promotion run failed")
		mapDomainError(c, err)
		return
	}

	// The run outlives the request; it is detached from the request context.
	go h.execute(run.ID)

	c.JSON(http.StatusAccepted, dto.ToPromotionRunResponse(run))
}

func (h *Handler) execute(id uuid.UUID) {
	ctx := context.Background()

	report, err := h.runner.RunWithID(ctx, id)
	status := domain.RunSucceeded
	if err != nil || !report.Succeeded {
		status = domain.RunFailed
	}

	if err := h.runs.Complete(ctx, id, status, &report); err != nil {
		log.WithField("run_id", id).WithError(err).Error("store run report failed")
	}
}

func (h *Handler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.runs.GetByID(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPromotionRunResponse(run))
}

func (h *Handler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		log.WithError(err).Error("list promotion runs failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.PromotionRunResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, dto.ToPromotionRunResponse(run))
	}

	c.JSON(http.StatusOK, dto.ListPromotionRunsResponse{
		Items: items,
		Total: len(items),
	})
}
