package fabric

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"workspace-promoter/internal/config"
	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
	"workspace-promoter/internal/testutil"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := new(testutil.MockTokenProvider)
	tokens.On("Token", mock.Anything).Return(domain.Credential{Token: "test-token"}, nil)

	return NewClient(&config.FabricConfig{
		BaseURL:       srv.URL,
		Timeout:       5 * time.Second,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
	}, tokens)
}

func TestClient_ListItems_Pagination(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/workspaces/ws-dev/items", r.URL.Path)

		if r.URL.Query().Get("continuationToken") == "" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value": []map[string]string{
					{"id": "1", "displayName": "Ingest", "type": "Notebook", "workspaceId": "ws-dev"},
				},
				"continuationToken": "page2",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]string{
				{"id": "2", "displayName": "Daily", "type": "DataPipeline", "workspaceId": "ws-dev"},
			},
		})
	}))

	items, err := client.ListItems(context.Background(), "ws-dev")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Ingest", items[0].Name)
	assert.Equal(t, domain.TypeNotebook, items[0].Type)
	assert.Equal(t, "Daily", items[1].Name)
	assert.Equal(t, domain.TypeDataPipeline, items[1].Type)
}

func TestClient_GetDefinition_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetDefinition(context.Background(), "ws-dev", "missing")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func TestClient_AuthErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.ListItems(context.Background(), "ws-dev")
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RateLimitRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"value": []map[string]string{}})
	}))

	_, err := client.ListItems(context.Background(), "ws-dev")
	assert.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RateLimitExhausted(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.ListItems(context.Background(), "ws-dev")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestClient_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "f1"})
	}))

	id, err := client.CreateFolder(context.Background(), "ws-prod", "etl", "")
	assert.NoError(t, err)
	assert.Equal(t, "f1", id)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_CreateItem(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/workspaces/ws-prod/items", r.URL.Path)

		var body createItemRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ingest", body.DisplayName)
		assert.Equal(t, "Notebook", body.Type)
		require.NotNil(t, body.Definition)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "101"})
	}))

	id, err := client.CreateItem(context.Background(), "ws-prod", ports.CreateItemRequest{
		Name: "Ingest",
		Type: domain.TypeNotebook,
		Definition: domain.Definition{Parts: []domain.DefinitionPart{
			{Path: "notebook-content.py", Payload: "cHJpbnQoMSk=", PayloadType: "InlineBase64"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "101", id)
}

func TestClient_CreateItem_AcceptedAsync(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	id, err := client.CreateItem(context.Background(), "ws-prod", ports.CreateItemRequest{
		Name: "Daily",
		Type: domain.TypeDataPipeline,
	})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestClient_MoveItem(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/workspaces/ws-prod/items/101", r.URL.Path)

		var body moveItemRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "f1", body.ParentFolderID)
	}))

	err := client.MoveItem(context.Background(), "ws-prod", "101", "f1")
	assert.NoError(t, err)
}
