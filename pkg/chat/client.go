package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ironrep/coach/pkg/logger"
	"github.com/ironrep/coach/pkg/sse"
)

// Answer modes understood by the agent backend.
const (
	ModeMedical   = "medical"
	ModeWorkout   = "workout"
	ModeNutrition = "nutrition"
	ModeChat      = "chat"
)

// ValidMode reports whether mode is one the backend accepts.
func ValidMode(mode string) bool {
	switch mode {
	case ModeMedical, ModeWorkout, ModeNutrition, ModeChat:
		return true
	}
	return false
}

// AskRequest is the body sent to open one answer stream.
type AskRequest struct {
	Question  string `json:"question"`
	Mode      string `json:"mode"`
	SessionID string `json:"session_id,omitempty"`
}

// StreamResult carries either one decoded event or a transport read failure.
// Err is set only for transport-level problems; protocol errors arrive as
// Event values with type "error".
type StreamResult struct {
	Event Event
	Err   error
}

// StreamClient opens an answer stream for a question. Implementations must
// close the returned channel when the stream ends for any reason and must
// stop sending promptly once ctx is cancelled.
type StreamClient interface {
	Stream(ctx context.Context, req AskRequest) (<-chan StreamResult, error)
}

// Client talks to the agent backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 5*time.Minute)
}

func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Stream posts the question and returns a channel of decoded events read
// from the SSE response. A non-success response status fails the open; no
// channel is returned in that case.
func (c *Client) Stream(ctx context.Context, req AskRequest) (<-chan StreamResult, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat/stream", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errorBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			return nil, fmt.Errorf("request failed with status %d (failed to read error response: %w)", resp.StatusCode, readErr)
		}

		var errorResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(errorBody, &errorResp) == nil && errorResp.Error != "" {
			return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, errorResp.Error)
		}

		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(errorBody))
	}

	results := make(chan StreamResult, 100)
	go c.readStream(ctx, resp.Body, results)

	return results, nil
}

// readStream feeds the response body through the frame scanner and decodes
// each frame. Malformed frames are logged and skipped. Cancellation exits
// without emitting anything further.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, results chan<- StreamResult) {
	defer close(results)
	defer body.Close()

	scanner := sse.NewScanner(body)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev, err := DecodeEvent(scanner.Frame())
		if err != nil {
			logger.Debug("Dropping malformed stream frame: %v", err)
			continue
		}

		select {
		case results <- StreamResult{Event: ev}:
		case <-ctx.Done():
			return
		}

		if ev.IsTerminal() {
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		results <- StreamResult{Err: fmt.Errorf("stream reading error: %w", err)}
	}
}

var _ StreamClient = (*Client)(nil)
