package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
)

// OrganizeService arranges the target workspace into a folder hierarchy
// mirroring the repository layout. It runs only after all imports settle:
// the platform is eventually consistent and freshly created items may not be
// movable yet, so each move retries with backoff instead of relying on a
// fixed delay.
type OrganizeService struct {
	client       ports.WorkspaceClient
	scanner      ports.RepoScanner
	moveAttempts int
	moveBackoff  time.Duration
}

func NewOrganizeService(client ports.WorkspaceClient, scanner ports.RepoScanner, moveAttempts int, moveBackoff time.Duration) *OrganizeService {
	if moveAttempts <= 0 {
		moveAttempts = 3
	}
	if moveBackoff <= 0 {
		moveBackoff = 2 * time.Second
	}
	return &OrganizeService{
		client:       client,
		scanner:      scanner,
		moveAttempts: moveAttempts,
		moveBackoff:  moveBackoff,
	}
}

// Organize moves each promoted artifact into the folder derived from the
// directory that defines it in the repository. Artifacts whose defining file
// cannot be located are skipped, not failed. Returns one outcome per
// artifact.
func (s *OrganizeService) Organize(ctx context.Context, workspaceID, repoRoot string, promoted []domain.Artifact) ([]domain.ArtifactOutcome, error) {
	entries, err := s.scanner.Scan(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("scan repository: %w", err)
	}
	byKey := make(map[string]ports.RepoEntry, len(entries))
	for _, e := range entries {
		byKey[string(e.Type)+"/"+e.Name] = e
	}

	items, err := s.client.ListItems(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list target workspace: %w", err)
	}

	itemIDs := make(map[string]string, len(items))
	folders := folderPaths(items)
	for _, item := range items {
		if item.Type == domain.TypeFolder {
			continue
		}
		itemIDs[string(item.Type)+"/"+item.Name] = item.ID
	}

	outcomes := make([]domain.ArtifactOutcome, 0, len(promoted))
	for _, a := range promoted {
		outcomes = append(outcomes, s.organizeOne(ctx, workspaceID, a, byKey, itemIDs, folders))
	}
	return outcomes, nil
}

func (s *OrganizeService) organizeOne(
	ctx context.Context,
	workspaceID string,
	a domain.Artifact,
	entries map[string]ports.RepoEntry,
	itemIDs map[string]string,
	folders map[string]string,
) domain.ArtifactOutcome {
	outcome := domain.ArtifactOutcome{
		SourceID: a.ID,
		Name:     a.Name,
		Type:     a.Type,
		Stage:    domain.StageOrganized,
	}

	entry, ok := entries[a.Key()]
	if !ok {
		log.WithFields(log.Fields{"artifact": a.Name, "type": a.Type}).
			Warn("skipping organize: source file not found")
		outcome.Status = domain.OutcomeSkipped
		outcome.Detail = "source file not found"
		return outcome
	}

	itemID, ok := itemIDs[a.Key()]
	if !ok {
		outcome.Status = domain.OutcomeSkipped
		outcome.Detail = "not present in target workspace"
		return outcome
	}
	outcome.TargetID = itemID

	if entry.FolderPath == "" {
		outcome.Status = domain.OutcomeOrganized
		return outcome
	}

	folderID, err := s.ensureFolderPath(ctx, workspaceID, entry.FolderPath, folders)
	if err != nil {
		outcome.Status = domain.OutcomeUnorganized
		outcome.Detail = err.Error()
		return outcome
	}

	if err := s.moveWithRetry(ctx, workspaceID, itemID, folderID); err != nil {
		log.WithFields(log.Fields{"artifact": a.Name, "folder": entry.FolderPath}).
			WithError(err).Warn("artifact left unorganized")
		outcome.Status = domain.OutcomeUnorganized
		outcome.Detail = err.Error()
		return outcome
	}

	log.WithFields(log.Fields{
		"artifact": a.Name,
		"type":     a.Type,
		"folder":   entry.FolderPath,
	}).Info("moved artifact into folder")
	outcome.Status = domain.OutcomeOrganized
	return outcome
}

// folderPaths indexes the workspace's existing folders by their full path,
// reconstructed through the parent links in the listing. Keying by full path
// rather than bare name keeps re-runs from recreating nested folders and from
// mistaking a nested folder for a top-level one of the same name.
func folderPaths(items []ports.Item) map[string]string {
	byID := make(map[string]ports.Item, len(items))
	for _, item := range items {
		if item.Type == domain.TypeFolder {
			byID[item.ID] = item
		}
	}

	paths := make(map[string]string, len(byID))
	var pathOf func(id string) string
	pathOf = func(id string) string {
		folder, ok := byID[id]
		if !ok {
			return ""
		}
		if parent := pathOf(folder.FolderID); parent != "" {
			return parent + "/" + folder.Name
		}
		return folder.Name
	}
	for id := range byID {
		paths[pathOf(id)] = id
	}
	return paths
}

// ensureFolderPath creates the missing segments of a nested folder path and
// returns the id of the leaf folder. Already existing folders are reused; the
// path-to-id map is shared across artifacts so each folder is created once.
func (s *OrganizeService) ensureFolderPath(ctx context.Context, workspaceID, folderPath string, folders map[string]string) (string, error) {
	var (
		currentPath string
		parentID    string
	)
	for _, part := range strings.Split(folderPath, "/") {
		if part == "" {
			continue
		}
		if currentPath == "" {
			currentPath = part
		} else {
			currentPath = currentPath + "/" + part
		}

		if id, ok := folders[currentPath]; ok {
			parentID = id
			continue
		}

		id, err := s.client.CreateFolder(ctx, workspaceID, part, parentID)
		if err != nil {
			return "", fmt.Errorf("create folder %q: %w", currentPath, err)
		}
		folders[currentPath] = id
		parentID = id
	}
	return parentID, nil
}

func (s *OrganizeService) moveWithRetry(ctx context.Context, workspaceID, itemID, folderID string) error {
	backoff := s.moveBackoff
	var lastErr error
	for attempt := 1; attempt <= s.moveAttempts; attempt++ {
		lastErr = s.client.MoveItem(ctx, workspaceID, itemID, folderID)
		if lastErr == nil {
			return nil
		}
		if attempt == s.moveAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("%w after %d attempts: %v", domain.ErrMoveRetryExhausted, s.moveAttempts, lastErr)
}
