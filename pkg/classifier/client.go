// Package classifier talks to the urgency categorization service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var ErrMalformedResponse = errors.New("classifier returned a malformed response")

// maxResponseBytes bounds how much of a reply is read.
const maxResponseBytes = 64 << 10

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type categorizeRequest struct {
	Description string `json:"description"`
}

// Categorize posts the description to {base}/categorize and returns the raw
// integer urgency. Mapping the value to a severity is left to the caller.
func (c *Client) Categorize(ctx context.Context, description string) (int, error) {
	payload, err := json.Marshal(categorizeRequest{Description: description})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/categorize", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, fmt.Errorf("failed to read classifier response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("classifier responded with status %d", resp.StatusCode)
	}

	return parseUrgency(body)
}

func parseUrgency(body []byte) (int, error) {
	if !gjson.ValidBytes(body) {
		return 0, ErrMalformedResponse
	}

	urgency := gjson.GetBytes(body, "urgency")
	if urgency.Type != gjson.Number {
		return 0, fmt.Errorf("%w: urgency missing or not a number", ErrMalformedResponse)
	}

	value := urgency.Float()
	if value != math.Trunc(value) {
		return 0, fmt.Errorf("%w: urgency %v is not an integer", ErrMalformedResponse, value)
	}

	return int(value), nil
}
