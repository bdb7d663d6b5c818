package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"workspace-promoter/internal/adapters/primary/http/dto"
	"workspace-promoter/internal/adapters/secondary/memory"
	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
	"workspace-promoter/internal/testutil"
)

type stubRunner struct {
	report domain.RunReport
	err    error
}

func (r *stubRunner) RunWithID(_ context.Context, id uuid.UUID) (domain.RunReport, error) {
	report := r.report
	report.RunID = id
	return report, r.err
}

func setupRouter(runner PromotionRunner, runs ports.RunRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	New(runner, runs, "ws-dev", "ws-prod").RegisterRoutes(router.Group("/api/v1/promoter"))
	return router
}

func TestStartRun(t *testing.T) {
	runner := &stubRunner{report: domain.RunReport{Succeeded: true, FinalStage: domain.StageDone}}
	runs := new(testutil.MockRunRepository)

	completed := make(chan struct{})
	runs.On("Create", mock.Anything, mock.AnythingOfType("*domain.PromotionRun")).Return(nil)
	runs.On("Complete", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.RunSucceeded, mock.AnythingOfType("*domain.RunReport")).
		Run(func(mock.Arguments) { close(completed) }).Return(nil)

	router := setupRouter(runner, runs)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/promoter/runs", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp dto.PromotionRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, string(domain.RunRunning), resp.Status)
	assert.Equal(t, "ws-dev", resp.SourceWorkspaceID)
	assert.Equal(t, "ws-prod", resp.TargetWorkspaceID)

	select {
	case <-completed:
	case <-time.After(2 * time.Second):
		t.Fatal("run never completed")
	}
	runs.AssertExpectations(t)
}

func TestStartRun_FailedRunStoredAsFailed(t *testing.T) {
	runner := &stubRunner{report: domain.RunReport{Succeeded: false, FinalStage: domain.StageFailed}}
	runs := new(testutil.MockRunRepository)

	completed := make(chan struct{})
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	runs.On("Complete", mock.Anything, mock.Anything, domain.RunFailed, mock.Anything).
		Run(func(mock.Arguments) { close(completed) }).Return(nil)

	router := setupRouter(runner, runs)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/promoter/runs", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)

	select {
	case <-completed:
	case <-time.After(2 * time.Second):
		t.Fatal("run never completed")
	}
}

func TestGetRun(t *testing.T) {
	runs := memory.NewRunRepository()
	run := &domain.PromotionRun{
		ID:                uuid.New(),
		Status:            domain.RunSucceeded,
		SourceWorkspaceID: "ws-dev",
		TargetWorkspaceID: "ws-prod",
		StartedAt:         time.Now(),
	}
	require.NoError(t, runs.Create(context.Background(), run))

	router := setupRouter(&stubRunner{}, runs)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/promoter/runs/"+run.ID.String(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.PromotionRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, run.ID.String(), resp.ID)
	assert.Equal(t, string(domain.RunSucceeded), resp.Status)
}

func TestGetRun_InvalidID(t *testing.T) {
	router := setupRouter(&stubRunner{}, memory.NewRunRepository())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/promoter/runs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	router := setupRouter(&stubRunner{}, memory.NewRunRepository())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/promoter/runs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRuns(t *testing.T) {
	runs := memory.NewRunRepository()
	for i := 0; i < 3; i++ {
		require.NoError(t, runs.Create(context.Background(), &domain.PromotionRun{
			ID:        uuid.New(),
			Status:    domain.RunSucceeded,
			StartedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	router := setupRouter(&stubRunner{}, runs)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/promoter/runs?limit=2", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.ListPromotionRunsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Items, 2)
}
