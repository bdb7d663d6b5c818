package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage is a step of the promotion state machine. Stages advance strictly in
// the order listed; StageFailed absorbs from any of them.
type Stage string

const (
	StageInit              Stage = "init"
	StageAuthenticated     Stage = "authenticated"
	StageNotebooksImported Stage = "notebooks_imported"
	StagePipelinesImported Stage = "pipelines_imported"
	StageOrganized         Stage = "organized"
	StageDone              Stage = "done"
	StageFailed            Stage = "failed"
)

// OutcomeStatus is the final disposition of one artifact within a run.
type OutcomeStatus string

const (
	OutcomeCreated     OutcomeStatus = "created"
	OutcomeUpdated     OutcomeStatus = "updated"
	OutcomeOrganized   OutcomeStatus = "organized"
	OutcomeUnorganized OutcomeStatus = "unorganized"
	OutcomeSkipped     OutcomeStatus = "skipped"
	OutcomeFailed      OutcomeStatus = "failed"
)

// ArtifactOutcome is one report line: what happened to a single artifact and
// in which stage. The final report carries exactly one outcome per artifact
// that was listed in the source workspace.
type ArtifactOutcome struct {
	SourceID string        `json:"source_id"`
	TargetID string        `json:"target_id,omitempty"`
	Name     string        `json:"name"`
	Type     ArtifactType  `json:"type"`
	Stage    Stage         `json:"stage"`
	Status   OutcomeStatus `json:"status"`
	Detail   string        `json:"detail,omitempty"`
}

// Failed reports whether this artifact counts against the run.
func (o ArtifactOutcome) Failed() bool {
	return o.Status == OutcomeFailed
}

// RunReport is the structured result of a promotion run.
type RunReport struct {
	RunID             uuid.UUID         `json:"run_id"`
	SourceWorkspaceID string            `json:"source_workspace_id"`
	TargetWorkspaceID string            `json:"target_workspace_id"`
	StartedAt         time.Time         `json:"started_at"`
	FinishedAt        time.Time         `json:"finished_at"`
	FinalStage        Stage             `json:"final_stage"`
	FailedStage       Stage             `json:"failed_stage,omitempty"`
	Succeeded         bool              `json:"succeeded"`
	Outcomes          []ArtifactOutcome `json:"outcomes"`
}

// RunStatus is the lifecycle state of a stored promotion run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// PromotionRun is a run as tracked by the run repository.
type PromotionRun struct {
	ID                uuid.UUID
	Status            RunStatus
	SourceWorkspaceID string
	TargetWorkspaceID string
	Report            *RunReport
	StartedAt         time.Time
	FinishedAt        *time.Time
}
