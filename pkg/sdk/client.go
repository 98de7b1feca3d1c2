package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client wraps calls to the assistant backend
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client. token may be empty for anonymous access
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Send a chat message
func (c *Client) SendMessage(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	path := "/api/chat/message"

	var out ApiResponse[ChatResponse]
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}

	// Check for success
	switch out.Status {
	case StatusFail:
		return nil, fmt.Errorf("request refused: %s", out.Message)
	case StatusError:
		return nil, fmt.Errorf("error sending message (%s): %v", out.Message, out.Error)
	}

	return &out.Data, nil
}

// Get conversation history for a session
func (c *Client) History(ctx context.Context, sessionID string, limit int) (*HistoryResponse, error) {
	path := fmt.Sprintf("/api/chat/history/%s?limit=%s", url.PathEscape(sessionID), strconv.Itoa(limit))

	var out ApiResponse[HistoryResponse]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	switch out.Status {
	case StatusFail:
		return nil, fmt.Errorf("failed to get history: %s", out.Message)
	case StatusError:
		return nil, fmt.Errorf("error getting history (%s): %v", out.Message, out.Error)
	}

	return &out.Data, nil
}

// Health checks backend availability
func (c *Client) Health(ctx context.Context) error {
	var out ApiResponse[any]
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return err
	}
	if out.Status != StatusSuccess {
		return fmt.Errorf("backend unhealthy: %s", out.Message)
	}
	return nil
}

// doJSON is a helper to perform JSON requests to the backend
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	// Create request body if input is provided
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	}

	// Create the request
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// Perform the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Decode even non-2xx bodies; the backend wraps rejections in the
	// same envelope
	if out == nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("backend '%s %s' failed: %d: %s", method, path, resp.StatusCode, string(b))
		}
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}
