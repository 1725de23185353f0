package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wcreiley/notice-alert-system/internal/core/ports/driving"
)

// DefaultClientTimeout bounds one query round trip. Answers involve several
// model calls.
const DefaultClientTimeout = 2 * time.Minute

// Client posts queries to a running server.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a client for the server at url. A nil httpClient uses
// one with DefaultClientTimeout.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultClientTimeout}
	}
	return &Client{url: url, http: httpClient}
}

// Ask posts req and returns the answer text.
func (c *Client) Ask(ctx context.Context, req driving.QueryRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("posting query: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRequestBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var answer string
	if err := json.Unmarshal(data, &answer); err != nil {
		return "", fmt.Errorf("decoding answer: %w", err)
	}
	return answer, nil
}
