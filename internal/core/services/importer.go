package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
)

// Action says whether an upsert created a new item or updated one in place.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// ImportService writes artifacts into the target workspace. Upserts are keyed
// by (type, name): re-running against an unchanged source produces updates,
// never duplicate creates.
type ImportService struct {
	client          ports.WorkspaceClient
	resolveAttempts int
	resolveBackoff  time.Duration
}

func NewImportService(client ports.WorkspaceClient, resolveAttempts int, resolveBackoff time.Duration) *ImportService {
	if resolveAttempts <= 0 {
		resolveAttempts = 5
	}
	if resolveBackoff <= 0 {
		resolveBackoff = 2 * time.Second
	}
	return &ImportService{
		client:          client,
		resolveAttempts: resolveAttempts,
		resolveBackoff:  resolveBackoff,
	}
}

// SnapshotTarget lists the target workspace once and indexes its items by
// artifact key. Taken at the start of an import stage so every upsert in the
// stage decides create-vs-update against the same view.
func (s *ImportService) SnapshotTarget(ctx context.Context, workspaceID string) (map[string]ports.Item, error) {
	items, err := s.client.ListItems(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list target workspace: %w", err)
	}
	existing := make(map[string]ports.Item, len(items))
	for _, item := range items {
		existing[string(item.Type)+"/"+item.Name] = item
	}
	return existing, nil
}

// Upsert writes one artifact into the target workspace and returns the id it
// ended up with. The existing map is updated in place so later upserts in the
// same stage see items created earlier in it.
func (s *ImportService) Upsert(ctx context.Context, workspaceID string, existing map[string]ports.Item, a domain.Artifact) (string, Action, error) {
	if item, ok := existing[a.Key()]; ok {
		if err := s.client.UpdateDefinition(ctx, workspaceID, item.ID, a.Definition); err != nil {
			return "", ActionUpdated, fmt.Errorf("update %s %q: %w", a.Type, a.Name, err)
		}
		log.WithFields(log.Fields{
			"artifact":  a.Name,
			"type":      a.Type,
			"target_id": item.ID,
		}).Info("updated artifact in place")
		return item.ID, ActionUpdated, nil
	}

	id, err := s.client.CreateItem(ctx, workspaceID, ports.CreateItemRequest{
		Name:        a.Name,
		Type:        a.Type,
		Description: fmt.Sprintf("Promoted %s: %s", a.Type, a.Name),
		Definition:  a.Definition,
	})
	if err != nil {
		return "", ActionCreated, fmt.Errorf("create %s %q: %w", a.Type, a.Name, err)
	}

	if id == "" {
		// Creation was accepted asynchronously; the item becomes visible in
		// the listing only once provisioning settles.
		id, err = s.resolveCreatedID(ctx, workspaceID, a)
		if err != nil {
			return "", ActionCreated, err
		}
	}

	existing[a.Key()] = ports.Item{ID: id, Name: a.Name, Type: a.Type, WorkspaceID: workspaceID}
	log.WithFields(log.Fields{
		"artifact":  a.Name,
		"type":      a.Type,
		"target_id": id,
	}).Info("created artifact")
	return id, ActionCreated, nil
}

func (s *ImportService) resolveCreatedID(ctx context.Context, workspaceID string, a domain.Artifact) (string, error) {
	backoff := s.resolveBackoff
	for attempt := 1; attempt <= s.resolveAttempts; attempt++ {
		items, err := s.client.ListItems(ctx, workspaceID)
		if err != nil {
			return "", fmt.Errorf("resolve created %s %q: %w", a.Type, a.Name, err)
		}
		for _, item := range items {
			if item.Type == a.Type && item.Name == a.Name {
				return item.ID, nil
			}
		}
		if attempt == s.resolveAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return "", fmt.Errorf("created %s %q not visible after %d attempts", a.Type, a.Name, s.resolveAttempts)
}
