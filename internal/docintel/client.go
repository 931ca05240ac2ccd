// Package docintel holds the thin HTTP clients for the external document
// collaborators: layout analysis (OCR) and translation. Both receive a
// signed URL or text and return their result; all pipeline semantics stay
// in the service layer.
package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inletai/inlet/internal/domain"
)

const defaultTimeout = 5 * time.Minute

// Client calls the layout-analysis endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type analyzeRequest struct {
	URL string `json:"url"`
}

// Analyze submits the document at the signed URL for layout extraction and
// returns its paragraphs and tables.
func (c *Client) Analyze(ctx context.Context, documentURL string) (domain.Layout, error) {
	body, err := json.Marshal(analyzeRequest{URL: documentURL})
	if err != nil {
		return domain.Layout{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Layout{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Layout{}, fmt.Errorf("layout analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Layout{}, fmt.Errorf("layout analysis returned status %d: %s", resp.StatusCode, msg)
	}

	var layout domain.Layout
	if err := json.NewDecoder(resp.Body).Decode(&layout); err != nil {
		return domain.Layout{}, fmt.Errorf("failed to decode layout response: %w", err)
	}

	return layout, nil
}
