package fabric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"workspace-promoter/internal/config"
	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
)

// Client talks to the platform management API over plain HTTP with a bearer
// token per request. Every call retries transport failures and rate limiting
// with exponential backoff up to the configured attempt count; 401/403, 404
// and 429 are mapped onto the domain error taxonomy.
type Client struct {
	baseURL       string
	http          *http.Client
	tokens        ports.TokenProvider
	retryAttempts int
	retryBackoff  time.Duration
}

func NewClient(cfg *config.FabricConfig, tokens ports.TokenProvider) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Client{
		baseURL:       cfg.BaseURL,
		tokens:        tokens,
		retryAttempts: attempts,
		retryBackoff:  backoff,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

type itemJSON struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	WorkspaceID string `json:"workspaceId"`
	FolderID    string `json:"folderId"`
}

type listItemsResponse struct {
	Value             []itemJSON `json:"value"`
	ContinuationToken string     `json:"continuationToken"`
}

type definitionEnvelope struct {
	Definition domain.Definition `json:"definition"`
}

type createItemRequest struct {
	DisplayName string             `json:"displayName"`
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Definition  *domain.Definition `json:"definition,omitempty"`
	FolderID    string             `json:"folderId,omitempty"`
}

type createFolderRequest struct {
	DisplayName    string `json:"displayName"`
	ParentFolderID string `json:"parentFolderId,omitempty"`
}

type createdResponse struct {
	ID string `json:"id"`
}

type moveItemRequest struct {
	ParentFolderID string `json:"parentFolderId"`
}

func (c *Client) ListItems(ctx context.Context, workspaceID string) ([]ports.Item, error) {
	var (
		items []ports.Item
		token string
	)
	for {
		url := fmt.Sprintf("%s/workspaces/%s/items", c.baseURL, workspaceID)
		if token != "" {
			url += "?continuationToken=" + token
		}

		var page listItemsResponse
		if _, err := c.send(ctx, http.MethodGet, url, nil, &page); err != nil {
			return nil, fmt.Errorf("list items in workspace %s: %w", workspaceID, err)
		}
		for _, it := range page.Value {
			items = append(items, ports.Item{
				ID:          it.ID,
				Name:        it.DisplayName,
				Type:        domain.ArtifactType(it.Type),
				WorkspaceID: it.WorkspaceID,
				FolderID:    it.FolderID,
			})
		}
		if page.ContinuationToken == "" {
			return items, nil
		}
		token = page.ContinuationToken
	}
}

func (c *Client) GetDefinition(ctx context.Context, workspaceID, itemID string) (domain.Definition, error) {
	url := fmt.Sprintf("%s/workspaces/%s/items/%s/getDefinition", c.baseURL, workspaceID, itemID)

	var envelope definitionEnvelope
	if _, err := c.send(ctx, http.MethodPost, url, nil, &envelope); err != nil {
		return domain.Definition{}, fmt.Errorf("get definition of item %s: %w", itemID, err)
	}
	return envelope.Definition, nil
}

func (c *Client) CreateItem(ctx context.Context, workspaceID string, req ports.CreateItemRequest) (string, error) {
	url := fmt.Sprintf("%s/workspaces/%s/items", c.baseURL, workspaceID)

	body := createItemRequest{
		DisplayName: req.Name,
		Type:        string(req.Type),
		Description: req.Description,
		FolderID:    req.FolderID,
	}
	if len(req.Definition.Parts) > 0 {
		body.Definition = &req.Definition
	}

	var created createdResponse
	status, err := c.send(ctx, http.MethodPost, url, body, &created)
	if err != nil {
		return "", fmt.Errorf("create %s %q: %w", req.Type, req.Name, err)
	}
	if status == http.StatusAccepted && created.ID == "" {
		// Accepted for asynchronous provisioning; the caller resolves the id
		// once the item shows up in the listing.
		return "", nil
	}
	return created.ID, nil
}

func (c *Client) UpdateDefinition(ctx context.Context, workspaceID, itemID string, def domain.Definition) error {
	url := fmt.Sprintf("%s/workspaces/%s/items/%s/updateDefinition", c.baseURL, workspaceID, itemID)

	if _, err := c.send(ctx, http.MethodPost, url, definitionEnvelope{Definition: def}, nil); err != nil {
		return fmt.Errorf("update definition of item %s: %w", itemID, err)
	}
	return nil
}

func (c *Client) CreateFolder(ctx context.Context, workspaceID, displayName, parentFolderID string) (string, error) {
	url := fmt.Sprintf("%s/workspaces/%s/folders", c.baseURL, workspaceID)

	var created createdResponse
	if _, err := c.send(ctx, http.MethodPost, url, createFolderRequest{
		DisplayName:    displayName,
		ParentFolderID: parentFolderID,
	}, &created); err != nil {
		return "", fmt.Errorf("create folder %q: %w", displayName, err)
	}
	return created.ID, nil
}

func (c *Client) MoveItem(ctx context.Context, workspaceID, itemID, folderID string) error {
	url := fmt.Sprintf("%s/workspaces/%s/items/%s", c.baseURL, workspaceID, itemID)

	if _, err := c.send(ctx, http.MethodPatch, url, moveItemRequest{ParentFolderID: folderID}, nil); err != nil {
		return fmt.Errorf("move item %s: %w", itemID, err)
	}
	return nil
}

// send performs one API call with retries. The returned status is the final
// HTTP status code. Rate limiting honors the Retry-After header when the
// platform provides one.
func (c *Client) send(ctx context.Context, method, url string, body, out interface{}) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request body: %w", err)
		}
	}

	backoff := c.retryBackoff
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		status, retryable, err := c.sendOnce(ctx, method, url, payload, out)
		if err == nil {
			return status, nil
		}
		lastErr = err
		if !retryable || attempt == c.retryAttempts {
			break
		}

		wait := backoff
		if d, ok := retryAfter(err); ok {
			wait = d
		}
		log.WithFields(log.Fields{
			"method":  method,
			"url":     url,
			"attempt": attempt,
			"wait":    wait.String(),
		}).WithError(err).Warn("retrying API call")

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return 0, lastErr
}

func (c *Client) sendOnce(ctx context.Context, method, url string, payload []byte, out interface{}) (status int, retryable bool, err error) {
	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, false, err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, false, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return resp.StatusCode, false, nil
		}
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, true, err
		}
		if len(raw) == 0 {
			return resp.StatusCode, false, nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, false, fmt.Errorf("decode response: %w", err)
		}
		return resp.StatusCode, false, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, false, fmt.Errorf("%w: status %d", domain.ErrAuth, resp.StatusCode)

	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, false, domain.ErrArtifactNotFound

	case resp.StatusCode == http.StatusTooManyRequests:
		return resp.StatusCode, true, &rateLimitError{retryAfter: parseRetryAfter(resp)}

	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, resp.StatusCode >= 500,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
}

// rateLimitError carries the server-requested wait through the retry loop.
type rateLimitError struct {
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string { return domain.ErrRateLimited.Error() }

func (e *rateLimitError) Unwrap() error { return domain.ErrRateLimited }

func retryAfter(err error) (time.Duration, bool) {
	if rl, ok := err.(*rateLimitError); ok && rl.retryAfter > 0 {
		return rl.retryAfter, true
	}
	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// Ensure interface compliance
var _ ports.WorkspaceClient = (*Client)(nil)
