package realtime

import (
	"bytes"
	"collaborative-code-editor/internal/event"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// APIClient talks to the REST API. It satisfies PageFetcher, MessagePoster
// and ProjectFetcher so the realtime layer needs no other HTTP plumbing.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewAPIClient(baseURL, token string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &APIClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
	}
}

func (c *APIClient) do(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Message, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// FetchMessages loads the most recent chat page, newest-first.
func (c *APIClient) FetchMessages(ctx context.Context, projectID uint64, limit int) ([]event.ChatPayload, error) {
	var resp struct {
		Data []event.ChatPayload `json:"data"`
	}
	path := fmt.Sprintf("/projects/%d/messages?limit=%d", projectID, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// PostMessage submits a chat message with its provisional timestamp.
func (c *APIClient) PostMessage(ctx context.Context, projectID uint64, content string, sentAt time.Time) error {
	path := fmt.Sprintf("/projects/%d/messages", projectID)
	body := map[string]any{"content": content, "time": sentAt}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// FetchProject loads the authoritative project detail.
func (c *APIClient) FetchProject(ctx context.Context, projectID uint64) (*ProjectSnapshot, error) {
	var snapshot ProjectSnapshot
	path := fmt.Sprintf("/projects/%d", projectID)
	if err := c.do(ctx, http.MethodGet, path, nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SaveFile submits the edited content of a file.
func (c *APIClient) SaveFile(ctx context.Context, fileID uint64, content string) error {
	path := fmt.Sprintf("/files/%d/save", fileID)
	return c.do(ctx, http.MethodPut, path, map[string]string{"content": content}, nil)
}
