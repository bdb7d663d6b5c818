package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
	"workspace-promoter/internal/testutil"
)

func newOrganizer(client *testutil.MockWorkspaceClient, scanner *testutil.MockRepoScanner) *OrganizeService {
	return NewOrganizeService(client, scanner, 2, time.Millisecond)
}

func TestOrganizeService_MovesIntoNestedFolders(t *testing.T) {
	client := new(testutil.MockWorkspaceClient)
	scanner := new(testutil.MockRepoScanner)
	svc := newOrganizer(client, scanner)

	scanner.On("Scan", "/repo").Return([]ports.RepoEntry{
		{Name: "Clean", Type: domain.TypeNotebook, FolderPath: "analytics/monthly"},
	}, nil)
	client.On("ListItems", mock.Anything, "ws-prod").Return([]ports.Item{
		{ID: "101", Name: "Clean", Type: domain.TypeNotebook},
	}, nil)
	client.On("CreateFolder", mock.Anything, "ws-prod", "analytics", "").Return("f1", nil)
	client.On("CreateFolder", mock.Anything, "ws-prod", "monthly", "f1").Return("f2", nil)
	client.On("MoveItem", mock.Anything, "ws-prod", "101", "f2").Return(nil)

	outcomes, err := svc.Organize(context.Background(), "ws-prod", "/repo", []domain.Artifact{
		{ID: "1", Name: "Clean", Type: domain.TypeNotebook},
	})
	assert.NoError(t, err)
	assert.Len(t, outcomes, 1)
	assert.Equal(t, domain.OutcomeOrganized, outcomes[0].Status)
	assert.Equal(t, "101", outcomes[0].TargetID)
	client.AssertExpectations(t)
}

func TestOrganizeService_ReusesExistingFolder(t *testing.T) {
	client := new(testutil.MockWorkspaceClient)
	scanner := new(testutil.MockRepoScanner)
	svc := newOrganizer(client, scanner)

	scanner.On("Scan", "/repo").Return([]ports.RepoEntry{
		{Name: "Clean", Type: domain.TypeNotebook, FolderPath: "analytics"},
		{Name: "Score", Type: domain.TypeNotebook, FolderPath: "analytics"},
	}, nil)
	client.On("ListItems", mock.Anything, "ws-prod").Return([]ports.Item{
		{ID: "101", Name: "Clean", Type: domain.TypeNotebook},
		{ID: "102", Name: "Score", Type: domain.TypeNotebook},
	}, nil)
	client.On("CreateFolder", mock.Anything, "ws-prod", "analytics", "").Return("f1", nil).Once()
	client.On("MoveItem", mock.Anything, "ws-prod", "101", "f1").Return(nil)
	client.On("MoveItem", mock.Anything, "ws-prod", "102", "f1").Return(nil)

	outcomes, err := svc.Organize(context.Background(), "ws-prod", "/repo", []domain.Artifact{
		{ID: "1", Name: "Clean", Type: domain.TypeNotebook},
		{ID: "2", Name: "Score", Type: domain.TypeNotebook},
	})
	assert.NoError(t, err)
	assert.Len(t, outcomes, 2)
	client.AssertNumberOfCalls(t, "CreateFolder", 1)
}

func TestOrganizeService_ReusesExistingNestedFolder(t *testing.T) {
	client := new(testutil.MockWorkspaceClient)
	scanner := new(testutil.MockRepoScanner)
	svc := newOrganizer(client, scanner)

	// Re-run against a workspace organized by a previous run: the full
	// analytics/monthly chain already exists and must be reused as-is.
	scanner.On("Scan", "/repo").Return([]ports.RepoEntry{
		{Name: "Clean", Type: domain.TypeNotebook, FolderPath: "analytics/monthly"},
	}, nil)
	client.On("ListItems", mock.Anything, "ws-prod").Return([]ports.Item{
		{ID: "f1", Name: "analytics", Type: domain.TypeFolder},
		{ID: "f2", Name: "monthly", Type: domain.TypeFolder, FolderID: "f1"},
		{ID: "101", Name: "Clean", Type: domain.TypeNotebook},
	}, nil)
	client.On("MoveItem", mock.Anything, "ws-prod", "101", "f2").Return(nil)

	outcomes, err := svc.Organize(context.Background(), "ws-prod", "/repo", []domain.Artifact{
		{ID: "1", Name: "Clean", Type: domain.TypeNotebook},
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeOrganized, outcomes[0].Status)
	client.AssertNotCalled(t, "CreateFolder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrganizeService_NestedFolderNameDoesNotShadowTopLevel(t *testing.T) {
	client := new(testutil.MockWorkspaceClient)
	scanner := new(testutil.MockRepoScanner)
	svc := newOrganizer(client, scanner)

	// An existing archive/analytics folder shares its bare name with the
	// needed top-level analytics folder; the latter must still be created.
	scanner.On("Scan", "/repo").Return([]ports.RepoEntry{
		{Name: "Clean", Type: domain.TypeNotebook, FolderPath: "analytics"},
	}, nil)
	client.On("ListItems", mock.Anything, "ws-prod").Return([]ports.Item{
		{ID: "f1", Name: "archive", Type: domain.TypeFolder},
		{ID: "f2", Name: "analytics", Type: domain.TypeFolder, FolderID: "f1"},
		{ID: "101", Name: "Clean", Type: domain.TypeNotebook},
	}, nil)
	client.On("CreateFolder", mock.Anything, "ws-prod", "analytics", "").Return("f3", nil)
	client.On("MoveItem", mock.Anything, "ws-prod", "101", "f3").Return(nil)

	outcomes, err := svc.Organize(context.Background(), "ws-prod", "/repo", []domain.Artifact{
		{ID: "1", Name: "Clean", Type: domain.TypeNotebook},
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeOrganized, outcomes[0].Status)
	client.AssertExpectations(t)
}

func TestOrganizeService_RootArtifactNotMoved(t *testing.T) {
	client := new(testutil.MockWorkspaceClient)
	scanner := new(testutil.MockRepoScanner)
	svc := newOrganizer(client, scanner)

	scanner.On("Scan", "/repo").Return([]ports.RepoEntry{
		{Name: "Ingest", Type: domain.TypeNotebook, FolderPath: ""},
	}, nil)
	client.On("ListItems", mock.Anything, "ws-prod").Return([]ports.Item{
		{ID: "101", Name: "Ingest", Type: domain.TypeNotebook},
	}, nil)

	outcomes, err := svc.Organize(context.Background(), "ws-prod", "/repo", []domain.Artifact{
		{ID: "1", Name: "Ingest", Type: domain.TypeNotebook},
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeOrganized, outcomes[0].Status)
	client.AssertNotCalled(t, "MoveItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "CreateFolder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrganizeService_SkipsUnknownSourceFile(t *testing.T) {
	client := new(testutil.MockWorkspaceClient)
	scanner := new(testutil.MockRepoScanner)
	svc := newOrganizer(client, scanner)

	scanner.On("Scan", "/repo").Return([]ports.RepoEntry{}, nil)
	client.On("ListItems", mock.Anything, "ws-prod").Return([]ports.Item{}, nil)

	outcomes, err := svc.Organize(context.Background(), "ws-prod", "/repo", []domain.Artifact{
		{ID: "1", Name: "Orphan", Type: domain.TypeNotebook},
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkipped, outcomes[0].Status)
	assert.Equal(t, "source file not found", outcomes[0].Detail)
}

func TestOrganizeService_MoveRetryExhausted(t *testing.T) {
	client := new(testutil.MockWorkspaceClient)
	scanner := new(testutil.MockRepoScanner)
	svc := newOrganizer(client, scanner)

	scanner.On("Scan", "/repo").Return([]ports.RepoEntry{
		{Name: "Clean", Type: domain.TypeNotebook, FolderPath: "analytics"},
	}, nil)
	client.On("ListItems", mock.Anything, "ws-prod").Return([]ports.Item{
		{ID: "101", Name: "Clean", Type: domain.TypeNotebook},
	}, nil)
	client.On("CreateFolder", mock.Anything, "ws-prod", "analytics", "").Return("f1", nil)
	client.On("MoveItem", mock.Anything, "ws-prod", "101", "f1").
		Return(errors.New("item is not ready"))

	outcomes, err := svc.Organize(context.Background(), "ws-prod", "/repo", []domain.Artifact{
		{ID: "1", Name: "Clean", Type: domain.TypeNotebook},
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnorganized, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Detail, domain.ErrMoveRetryExhausted.Error())
	client.AssertNumberOfCalls(t, "MoveItem", 2)
}
