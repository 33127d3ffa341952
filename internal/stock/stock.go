// Package stock fetches urgent-stock summaries from the inventory service.
package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const urgentStocksPath = "/api/chatbot/urgent-stocks"

// Payload is the service's response body.
type Payload struct {
	Status  string `json:"status"`
	Answer  string `json:"answer,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the service produced an answer.
func (p Payload) OK() bool {
	return p.Status == "success"
}

// Client calls the inventory service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the service rooted at baseURL. A nil
// httpClient gets one with the given timeout.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// FetchUrgent asks the service for the current critical-stock message.
//
// Error statuses that still carry a JSON body are decoded and returned
// without error so the caller can report the service's own message. Such a
// payload is never OK.
func (c *Client) FetchUrgent(ctx context.Context) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+urgentStocksPath, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Payload{}, fmt.Errorf("read response: %w", err)
	}

	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Payload{}, fmt.Errorf("stock service returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if resp.StatusCode >= 300 {
		// An error status never counts as success, whatever the body says.
		if p.Status == "" || p.OK() {
			p.Status = "error"
		}
		if p.Message == "" {
			p.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
	}
	return p, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
