// File path: internal/content/client.go
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FileInfo describes a file held by the content service.
type FileInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

// FolderInfo describes a folder held by the content service.
type FolderInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Subscription is a webhook registration held by the content service.
type Subscription struct {
	ID          string   `json:"id"`
	FolderID    string   `json:"folder_id"`
	CallbackURL string   `json:"callback_url"`
	Triggers    []string `json:"triggers"`
}

// Client is the surface this service needs from a content provider.
// Implementations must be safe for concurrent use.
type Client interface {
	GetFile(ctx context.Context, fileID string) (*FileInfo, error)
	GetFolder(ctx context.Context, folderID string) (*FolderInfo, error)
	CreateSubscription(ctx context.Context, folderID, callbackURL string, triggers []string) (*Subscription, error)
	DeleteSubscription(ctx context.Context, subscriptionID string) error
}

// HTTPClient talks to a content service over its JSON REST API.
type HTTPClient struct {
	base  string
	token string
	hc    *http.Client
}

// NewHTTPClient builds a client for the API at base, authenticating with a
// bearer token. timeout bounds each request end to end.
func NewHTTPClient(base, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		base:  base,
		token: token,
		hc:    &http.Client{Timeout: timeout},
	}
}

// GetFile fetches file metadata.
func (c *HTTPClient) GetFile(ctx context.Context, fileID string) (*FileInfo, error) {
	var info FileInfo
	if err := c.doJSON(ctx, http.MethodGet, "/files/"+fileID, nil, &info); err != nil {
		return nil, fmt.Errorf("content: get file %s: %w", fileID, err)
	}
	return &info, nil
}

// GetFolder fetches folder metadata.
func (c *HTTPClient) GetFolder(ctx context.Context, folderID string) (*FolderInfo, error) {
	var info FolderInfo
	if err := c.doJSON(ctx, http.MethodGet, "/folders/"+folderID, nil, &info); err != nil {
		return nil, fmt.Errorf("content: get folder %s: %w", folderID, err)
	}
	return &info, nil
}

// CreateSubscription registers a webhook on folderID delivering to
// callbackURL for the given triggers.
func (c *HTTPClient) CreateSubscription(ctx context.Context, folderID, callbackURL string, triggers []string) (*Subscription, error) {
	req := map[string]interface{}{
		"folder_id":    folderID,
		"callback_url": callbackURL,
		"triggers":     triggers,
	}
	var sub Subscription
	if err := c.doJSON(ctx, http.MethodPost, "/webhooks", req, &sub); err != nil {
		return nil, fmt.Errorf("content: create subscription for folder %s: %w", folderID, err)
	}
	return &sub, nil
}

// DeleteSubscription removes a webhook registration.
func (c *HTTPClient) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/webhooks/"+subscriptionID, nil, nil); err != nil {
		return fmt.Errorf("content: delete subscription %s: %w", subscriptionID, err)
	}
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
