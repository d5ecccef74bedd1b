package boardclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	v1 "github.com/cardwall/cardwall/pkg/api/v1"
)

// DefaultRequestTimeout bounds a single persistence or fetch request.
const DefaultRequestTimeout = 10 * time.Second

// Client is the REST client for move persistence and full-board fetches.
// Every client carries a unique origin ID that the server echoes in the
// broadcast event for a move, letting the receiver skip self-echoes.
type Client struct {
	baseURL    string
	userID     string
	origin     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithOrigin overrides the generated origin ID.
func WithOrigin(origin string) Option {
	return func(c *Client) {
		c.origin = origin
	}
}

// NewClient creates a board API client. baseURL is the server root, e.g.
// "http://localhost:8080"; userID is the identity asserted on each request.
func NewClient(baseURL, userID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		userID:     userID,
		origin:     uuid.New().String(),
		httpClient: &http.Client{Timeout: DefaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Origin returns the client's origin ID.
func (c *Client) Origin() string {
	return c.origin
}

// apiError mirrors the server's error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MoveTask persists a move: task taskID into list listID at position. The
// request carries the client's origin so the resulting broadcast can be
// recognized as this client's own.
func (c *Client) MoveTask(ctx context.Context, taskID, listID string, position int) error {
	body, err := json.Marshal(map[string]interface{}{
		"list_id":  listID,
		"position": position,
		"origin":   c.origin,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/tasks/%s/move", c.baseURL, taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", c.userID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("move task %s: %w", taskID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp, "move task "+taskID)
	}
	return nil
}

// FetchBoard retrieves the complete board state: all lists and tasks with
// positions. Used for initial load and for post-failure resynchronization.
func (c *Client) FetchBoard(ctx context.Context, boardID string) (*v1.BoardSnapshot, error) {
	url := fmt.Sprintf("%s/api/v1/boards/%s/full", c.baseURL, boardID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-User-ID", c.userID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch board %s: %w", boardID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp, "fetch board "+boardID)
	}

	var snapshot v1.BoardSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode board %s: %w", boardID, err)
	}
	return &snapshot, nil
}

// decodeError turns a non-2xx response into an error carrying the server's
// error code when one is present.
func decodeError(resp *http.Response, op string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiError
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Code != "" {
		return fmt.Errorf("%s: %s (%s)", op, apiErr.Message, apiErr.Code)
	}
	return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
}
