package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
)

// PromotionService drives a full promotion run through its stages:
//
//	init -> authenticated -> notebooks_imported -> pipelines_imported -> organized -> done
//
// Notebooks import strictly before pipelines so every notebook reference a
// pipeline carries can be resolved through the mapping table. Per-artifact
// failures are collected and never abort the stage; stage-level failures
// (authentication, listing) abort the run. Already imported artifacts are
// left as-is on failure, there is no rollback.
type PromotionService struct {
	tokens     ports.TokenProvider
	exporter   *ExportService
	importer   *ImportService
	translator *TranslateService
	organizer  *OrganizeService

	source   string
	target   string
	repoRoot string
}

func NewPromotionService(
	tokens ports.TokenProvider,
	exporter *ExportService,
	importer *ImportService,
	translator *TranslateService,
	organizer *OrganizeService,
	source, target, repoRoot string,
) *PromotionService {
	return &PromotionService{
		tokens:     tokens,
		exporter:   exporter,
		importer:   importer,
		translator: translator,
		organizer:  organizer,
		source:     source,
		target:     target,
		repoRoot:   repoRoot,
	}
}

// Run executes one promotion. The returned error is non-nil only for
// stage-level aborts; per-artifact failures are reported through the run
// report with Succeeded set to false.
func (s *PromotionService) Run(ctx context.Context) (domain.RunReport, error) {
	return s.RunWithID(ctx, uuid.New())
}

// RunWithID executes one promotion under a caller-chosen run id, so callers
// that pre-register the run (the HTTP trigger endpoint) can hand out the id
// before the run finishes.
func (s *PromotionService) RunWithID(ctx context.Context, id uuid.UUID) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:             id,
		SourceWorkspaceID: s.source,
		TargetWorkspaceID: s.target,
		StartedAt:         time.Now(),
		FinalStage:        domain.StageInit,
	}
	outcomes := make(map[string]domain.ArtifactOutcome)

	abort := func(stage domain.Stage, err error) (domain.RunReport, error) {
		log.WithFields(log.Fields{"run_id": report.RunID, "stage": stage}).
			WithError(err).Error("promotion run aborted")
		report.FinalStage = domain.StageFailed
		report.FailedStage = stage
		report.Succeeded = false
		finishReport(&report, outcomes)
		return report, err
	}

	if _, err := s.tokens.Token(ctx); err != nil {
		return abort(domain.StageAuthenticated, fmt.Errorf("%w: %v", domain.ErrAuth, err))
	}
	report.FinalStage = domain.StageAuthenticated
	log.WithField("run_id", report.RunID).Info("authenticated against platform API")

	table := domain.NewMappingTable()
	var promoted []domain.Artifact

	// Notebooks first: pipelines depend on their target-side ids.
	notebooks, err := s.importStage(ctx, domain.TypeNotebook, table, outcomes)
	if err != nil {
		return abort(domain.StageNotebooksImported, err)
	}
	promoted = append(promoted, notebooks...)
	report.FinalStage = domain.StageNotebooksImported

	pipelines, err := s.importStage(ctx, domain.TypeDataPipeline, table, outcomes)
	if err != nil {
		return abort(domain.StagePipelinesImported, err)
	}
	promoted = append(promoted, pipelines...)
	report.FinalStage = domain.StagePipelinesImported

	organizeOutcomes, err := s.organizer.Organize(ctx, s.target, s.repoRoot, promoted)
	if err != nil {
		return abort(domain.StageOrganized, err)
	}
	for _, o := range organizeOutcomes {
		// The organize outcome supersedes the import outcome but keeps the
		// target id assigned during import.
		if prev, ok := outcomes[outcomeKey(o)]; ok && o.TargetID == "" {
			o.TargetID = prev.TargetID
		}
		outcomes[outcomeKey(o)] = o
	}
	report.FinalStage = domain.StageOrganized

	report.FinalStage = domain.StageDone
	finishReport(&report, outcomes)

	log.WithFields(log.Fields{
		"run_id":    report.RunID,
		"artifacts": len(report.Outcomes),
		"succeeded": report.Succeeded,
	}).Info("promotion run finished")
	return report, nil
}

// importStage exports all artifacts of one type from the source workspace and
// upserts them into the target. Pipeline definitions are translated through
// the mapping table before upload; notebook imports feed the table.
func (s *PromotionService) importStage(
	ctx context.Context,
	t domain.ArtifactType,
	table *domain.MappingTable,
	outcomes map[string]domain.ArtifactOutcome,
) ([]domain.Artifact, error) {
	stage := StageForType(t)

	artifacts, err := s.exporter.List(ctx, s.source, t)
	if err != nil {
		return nil, fmt.Errorf("list source %ss: %w", t, err)
	}
	if len(artifacts) == 0 {
		return nil, nil
	}

	fetched, skipped := s.exporter.FetchDefinitions(ctx, artifacts)
	for _, o := range skipped {
		outcomes[outcomeKey(o)] = o
	}

	existing, err := s.importer.SnapshotTarget(ctx, s.target)
	if err != nil {
		return nil, err
	}

	var imported []domain.Artifact
	for _, a := range fetched {
		outcome := domain.ArtifactOutcome{
			SourceID: a.ID,
			Name:     a.Name,
			Type:     a.Type,
			Stage:    stage,
		}

		def := a.Definition
		if t == domain.TypeDataPipeline {
			def, _, err = s.translator.Rewrite(def, table)
			if err != nil {
				log.WithFields(log.Fields{"artifact": a.Name}).
					WithError(err).Error("reference translation failed")
				outcome.Status = domain.OutcomeFailed
				outcome.Detail = err.Error()
				outcomes[outcomeKey(outcome)] = outcome
				continue
			}
			a.Definition = def
		}

		targetID, action, err := s.importer.Upsert(ctx, s.target, existing, a)
		if err != nil {
			outcome.Status = domain.OutcomeFailed
			outcome.Detail = err.Error()
			outcomes[outcomeKey(outcome)] = outcome
			continue
		}

		table.Put(a.ID, domain.Mapping{TargetID: targetID, TargetWorkspaceID: s.target})
		outcome.TargetID = targetID
		if action == ActionCreated {
			outcome.Status = domain.OutcomeCreated
		} else {
			outcome.Status = domain.OutcomeUpdated
		}
		outcomes[outcomeKey(outcome)] = outcome
		imported = append(imported, a)
	}

	return imported, nil
}

func outcomeKey(o domain.ArtifactOutcome) string {
	return string(o.Type) + "/" + o.Name
}

func finishReport(report *domain.RunReport, outcomes map[string]domain.ArtifactOutcome) {
	report.FinishedAt = time.Now()
	report.Outcomes = make([]domain.ArtifactOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		report.Outcomes = append(report.Outcomes, o)
	}
	sort.Slice(report.Outcomes, func(i, j int) bool {
		a, b := report.Outcomes[i], report.Outcomes[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Name < b.Name
	})

	if report.FinalStage == domain.StageFailed {
		return
	}
	report.Succeeded = true
	for _, o := range report.Outcomes {
		if o.Failed() {
			report.Succeeded = false
			break
		}
	}
}
