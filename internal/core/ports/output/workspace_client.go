package ports

import (
	"context"

	"workspace-promoter/internal/core/domain"
)

// Item is one entry of a workspace item listing.
type Item struct {
	ID          string
	Name        string
	Type        domain.ArtifactType
	WorkspaceID string
	FolderID    string
}

// CreateItemRequest is the payload for creating a new workspace item.
type CreateItemRequest struct {
	Name        string
	Type        domain.ArtifactType
	Description string
	Definition  domain.Definition
	FolderID    string
}

// WorkspaceClient is the platform management API surface the promoter needs.
// Implementations map platform failures onto the domain error taxonomy:
// domain.ErrAuth (401/403), domain.ErrArtifactNotFound (404) and
// domain.ErrRateLimited (429).
type WorkspaceClient interface {
	// ListItems returns every item of the workspace, following pagination.
	ListItems(ctx context.Context, workspaceID string) ([]Item, error)

	// GetDefinition fetches the raw multi-part definition of an item.
	GetDefinition(ctx context.Context, workspaceID, itemID string) (domain.Definition, error)

	// CreateItem creates a new item and returns its id. The platform may
	// accept the creation asynchronously, in which case the returned id is
	// empty and the caller resolves it by re-listing.
	CreateItem(ctx context.Context, workspaceID string, req CreateItemRequest) (string, error)

	// UpdateDefinition replaces an existing item's definition in place.
	UpdateDefinition(ctx context.Context, workspaceID, itemID string, def domain.Definition) error

	// CreateFolder creates a folder under parentFolderID (workspace root when
	// empty) and returns its id.
	CreateFolder(ctx context.Context, workspaceID, displayName, parentFolderID string) (string, error)

	// MoveItem re-parents an item into the given folder.
	MoveItem(ctx context.Context, workspaceID, itemID, folderID string) error
}
