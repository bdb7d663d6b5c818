package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
)

// MockWorkspaceClient is a mock of WorkspaceClient.
type MockWorkspaceClient struct {
	mock.Mock
}

func (m *MockWorkspaceClient) ListItems(ctx context.Context, workspaceID string) ([]ports.Item, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.Item), args.Error(1)
}

func (m *MockWorkspaceClient) GetDefinition(ctx context.Context, workspaceID, itemID string) (domain.Definition, error) {
	args := m.Called(ctx, workspaceID, itemID)
	return args.Get(0).(domain.Definition), args.Error(1)
}

func (m *MockWorkspaceClient) CreateItem(ctx context.Context, workspaceID string, req ports.CreateItemRequest) (string, error) {
	args := m.Called(ctx, workspaceID, req)
	return args.String(0), args.Error(1)
}

func (m *MockWorkspaceClient) UpdateDefinition(ctx context.Context, workspaceID, itemID string, def domain.Definition) error {
	args := m.Called(ctx, workspaceID, itemID, def)
	return args.Error(0)
}

func (m *MockWorkspaceClient) CreateFolder(ctx context.Context, workspaceID, displayName, parentFolderID string) (string, error) {
	args := m.Called(ctx, workspaceID, displayName, parentFolderID)
	return args.String(0), args.Error(1)
}

func (m *MockWorkspaceClient) MoveItem(ctx context.Context, workspaceID, itemID, folderID string) error {
	args := m.Called(ctx, workspaceID, itemID, folderID)
	return args.Error(0)
}

// MockTokenProvider is a mock of TokenProvider.
type MockTokenProvider struct {
	mock.Mock
}

func (m *MockTokenProvider) Token(ctx context.Context) (domain.Credential, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Credential), args.Error(1)
}

// MockRepoScanner is a mock of RepoScanner.
type MockRepoScanner struct {
	mock.Mock
}

func (m *MockRepoScanner) Scan(repoRoot string) ([]ports.RepoEntry, error) {
	args := m.Called(repoRoot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.RepoEntry), args.Error(1)
}

// MockRunRepository is a mock of RunRepository.
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Create(ctx context.Context, run *domain.PromotionRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) Complete(ctx context.Context, id uuid.UUID, status domain.RunStatus, report *domain.RunReport) error {
	args := m.Called(ctx, id, status, report)
	return args.Error(0)
}

func (m *MockRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PromotionRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PromotionRun), args.Error(1)
}

func (m *MockRunRepository) ListRecent(ctx context.Context, limit int) ([]*domain.PromotionRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PromotionRun), args.Error(1)
}
