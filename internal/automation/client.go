package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client calls the automation server over HTTP. A transport failure (server
// unreachable, timeout) is returned as an error; a run that failed inside the
// browser comes back as a Result with Success=false.
type Client struct {
	baseURL string
	secret  string
	httpc   *http.Client
}

// NewClient creates a boundary client. The timeout must cover a full browser
// run, which is slow; callers typically pass a couple of minutes.
func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type addNoteResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	Error          string `json:"error"`
	ProcessedCount int    `json:"processed_count"`
}

// AddNote issues one automation request and waits for its result. No retries,
// no batching: one in-flight call per invocation.
func (c *Client) AddNote(ctx context.Context, req *Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/add_note", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	token, err := NewToken(c.secret)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("automation server unreachable: %w", err)
	}
	defer resp.Body.Close()

	// 200 carries a success result, 500 a semantic failure; everything else
	// is a boundary-level error.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusInternalServerError {
		return nil, fmt.Errorf("automation server returned status %d", resp.StatusCode)
	}

	var decoded addNoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	message := decoded.Message
	if !decoded.Success && decoded.Error != "" {
		message = decoded.Error
	}

	return &Result{
		Success:        decoded.Success,
		Message:        message,
		ProcessedCount: decoded.ProcessedCount,
	}, nil
}

// Health probes the automation server's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("automation server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("automation server returned status %d", resp.StatusCode)
	}
	return nil
}
