package dto

import (
	"time"

	"workspace-promoter/internal/core/domain"
)

type ArtifactOutcomeResponse struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id,omitempty"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Stage    string `json:"stage"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
}

type RunReportResponse struct {
	FinalStage  string                    `json:"final_stage"`
	FailedStage string                    `json:"failed_stage,omitempty"`
	Succeeded   bool                      `json:"succeeded"`
	Outcomes    []ArtifactOutcomeResponse `json:"outcomes"`
}

type PromotionRunResponse struct {
	ID                string             `json:"id"`
	Status            string             `json:"status"`
	SourceWorkspaceID string             `json:"source_workspace_id"`
	TargetWorkspaceID string             `json:"target_workspace_id"`
	StartedAt         time.Time          `json:"started_at"`
	FinishedAt        *time.Time         `json:"finished_at,omitempty"`
	Report            *RunReportResponse `json:"report,omitempty"`
}

type ListPromotionRunsResponse struct {
	Items []PromotionRunResponse `json:"items"`
	Total int                    `json:"total"`
}

func ToPromotionRunResponse(run *domain.PromotionRun) PromotionRunResponse {
	resp := PromotionRunResponse{
		ID:                run.ID.String(),
		Status:            string(run.Status),
		SourceWorkspaceID: run.SourceWorkspaceID,
		TargetWorkspaceID: run.TargetWorkspaceID,
		StartedAt:         run.StartedAt,
		FinishedAt:        run.FinishedAt,
	}
	if run.Report != nil {
		resp.Report = toRunReportResponse(run.Report)
	}
	return resp
}

func toRunReportResponse(report *domain.RunReport) *RunReportResponse {
	outcomes := make([]ArtifactOutcomeResponse, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		outcomes = append(outcomes, ArtifactOutcomeResponse{
			SourceID: o.SourceID,
			TargetID: o.TargetID,
			Name:     o.Name,
			Type:     string(o.Type),
			Stage:    string(o.Stage),
			Status:   string(o.Status),
			Detail:   o.Detail,
		})
	}
	return &RunReportResponse{
		FinalStage:  string(report.FinalStage),
		FailedStage: string(report.FailedStage),
		Succeeded:   report.Succeeded,
		Outcomes:    outcomes,
	}
}
