package services

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
)

// ExportService reads artifacts out of the source workspace. Listing is
// eager: the full artifact set must be known before import begins, because
// import ordering depends on the dependency edges between types.
type ExportService struct {
	client      ports.WorkspaceClient
	concurrency int
}

func NewExportService(client ports.WorkspaceClient, concurrency int) *ExportService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ExportService{client: client, concurrency: concurrency}
}

// List returns every artifact of the given type in the workspace, without
// definitions.
func (s *ExportService) List(ctx context.Context, workspaceID string, t domain.ArtifactType) ([]domain.Artifact, error) {
	items, err := s.client.ListItems(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	var artifacts []domain.Artifact
	for _, item := range items {
		if item.Type != t {
			continue
		}
		artifacts = append(artifacts, domain.Artifact{
			ID:                item.ID,
			Name:              item.Name,
			Type:              item.Type,
			SourceWorkspaceID: workspaceID,
		})
	}

	log.WithFields(log.Fields{
		"workspace_id": workspaceID,
		"type":         t,
		"count":        len(artifacts),
	}).Info("listed source artifacts")

	return artifacts, nil
}

// FetchDefinitions loads the raw definition of each artifact. Fetches run on
// a bounded worker pool; this is the only phase of a run that is parallel.
// An artifact that disappears between listing and fetching is retried once
// and then reported as skipped; any other fetch error fails that artifact.
// Neither aborts its siblings.
func (s *ExportService) FetchDefinitions(ctx context.Context, artifacts []domain.Artifact) ([]domain.Artifact, []domain.ArtifactOutcome) {
	var (
		mu       sync.Mutex
		fetched  []domain.Artifact
		outcomes []domain.ArtifactOutcome
	)

	p := pool.New().WithMaxGoroutines(s.concurrency)
	for _, a := range artifacts {
		a := a
		p.Go(func() {
			def, err := s.fetchOnce(ctx, a)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				status := domain.OutcomeFailed
				if errors.Is(err, domain.ErrArtifactNotFound) {
					status = domain.OutcomeSkipped
				}
				log.WithFields(log.Fields{
					"artifact": a.Name,
					"type":     a.Type,
					"status":   status,
				}).WithError(err).Warn("definition fetch failed")
				outcomes = append(outcomes, domain.ArtifactOutcome{
					SourceID: a.ID,
					Name:     a.Name,
					Type:     a.Type,
					Stage:    StageForType(a.Type),
					Status:   status,
					Detail:   err.Error(),
				})
				return
			}
			a.Definition = def
			fetched = append(fetched, a)
		})
	}
	p.Wait()

	return fetched, outcomes
}

func (s *ExportService) fetchOnce(ctx context.Context, a domain.Artifact) (domain.Definition, error) {
	def, err := s.client.GetDefinition(ctx, a.SourceWorkspaceID, a.ID)
	if errors.Is(err, domain.ErrArtifactNotFound) {
		// The artifact may have been replaced between listing and fetching;
		// one retry covers the rename-in-flight case.
		def, err = s.client.GetDefinition(ctx, a.SourceWorkspaceID, a.ID)
	}
	return def, err
}

// StageForType returns the import stage an artifact type belongs to.
func StageForType(t domain.ArtifactType) domain.Stage {
	if t == domain.TypeDataPipeline {
		return domain.StagePipelinesImported
	}
	return domain.StageNotebooksImported
}
