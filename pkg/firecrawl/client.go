package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.firecrawl.dev"

// Client is a minimal Firecrawl API client covering the two endpoints the
// research pipeline needs: web search and single-page scraping.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Firecrawl client. An empty baseURL selects the hosted
// API; tests and self-hosted deployments pass their own.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type scrapeOptions struct {
	Formats []string `json:"formats"`
}

type searchRequest struct {
	Query         string         `json:"query"`
	Limit         int            `json:"limit"`
	ScrapeOptions *scrapeOptions `json:"scrapeOptions,omitempty"`
}

type searchResponse struct {
	Success bool           `json:"success"`
	Data    []SearchResult `json:"data"`
	Error   string         `json:"error,omitempty"`
}

// SearchResult is one hit from the search endpoint. Markdown and Metadata
// are populated because searches request scraped content for each hit.
type SearchResult struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Markdown    string   `json:"markdown,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"sourceURL,omitempty"`
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats,omitempty"`
}

type scrapeResponse struct {
	Success bool      `json:"success"`
	Data    *Document `json:"data"`
	Error   string    `json:"error,omitempty"`
}

// Document is the scraped content of a single page.
type Document struct {
	Markdown string   `json:"markdown"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Search runs a web search and returns up to limit results with scraped
// markdown content attached.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	reqBody := searchRequest{
		Query:         query,
		Limit:         limit,
		ScrapeOptions: &scrapeOptions{Formats: []string{"markdown"}},
	}

	body, status, err := c.post(ctx, "/v1/search", reqBody)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status: %d, body: %s", status, string(body))
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("search request unsuccessful: %s", resp.Error)
	}
	return resp.Data, nil
}

// ScrapeURL fetches a single page as markdown. It returns (nil, nil) when
// the API answered but the page yielded no usable content, for example when
// the target site blocked the fetch; callers are expected to skip such
// pages. Errors are reserved for transport, auth, and quota failures.
func (c *Client) ScrapeURL(ctx context.Context, pageURL string) (*Document, error) {
	reqBody := scrapeRequest{
		URL:     pageURL,
		Formats: []string{"markdown"},
	}

	body, status, err := c.post(ctx, "/v1/scrape", reqBody)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		var resp scrapeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scrape response: %w", err)
		}
		if !resp.Success || resp.Data == nil || resp.Data.Markdown == "" {
			return nil, nil
		}
		return resp.Data, nil
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden, http.StatusTooManyRequests:
		return nil, fmt.Errorf("scrape request failed with status: %d, body: %s", status, string(body))
	default:
		// The target page could not be fetched or rendered. Not a client
		// failure, so the page is reported as missing rather than fatal.
		return nil, nil
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
