package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
)

// PromotionRunner executes one promotion run under a pre-assigned id.
type PromotionRunner interface {
	RunWithID(ctx context.Context, id uuid.UUID) (domain.RunReport, error)
}

type Handler struct {
	runner PromotionRunner
	runs   ports.RunRepository

	source string
	target string
}

func New(runner PromotionRunner, runs ports.RunRepository, source, target string) *Handler {
	return &Handler{
		runner: runner,
		runs:   runs,
		source: source,
		target: target,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/runs", h.StartRun)
	r.GET("/runs", h.ListRuns)
	r.GET("/runs/:id", h.GetRun)
}
