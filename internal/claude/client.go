// Package claude implements a minimal HTTP client for the Anthropic
// messages API, used as the completion provider for code analysis.
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/tildaslashalef/reviewd/internal/config"
	"github.com/tildaslashalef/reviewd/internal/loggy"
)

// Client is an Anthropic Claude API client
type Client struct {
	apiKey           string
	baseURL          string
	defaultModel     string
	defaultMaxTokens int
	apiVersion       string
	maxRetries       int
	httpClient       *http.Client
	logger           *loggy.Logger
}

// NewClient creates a new Claude client from config
func NewClient(cfg config.ClaudeConfig, logger *loggy.Logger) *Client {
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2023-06-01"
	}

	defaultMaxTokens := cfg.MaxTokens
	if defaultMaxTokens <= 0 {
		defaultMaxTokens = 4096
	}

	return &Client{
		apiKey:           cfg.APIKey,
		baseURL:          strings.TrimSuffix(cfg.BaseURL, "/"),
		defaultModel:     cfg.Model,
		defaultMaxTokens: defaultMaxTokens,
		apiVersion:       apiVersion,
		maxRetries:       cfg.MaxRetries,
		httpClient:       &http.Client{Timeout: cfg.Timeout},
		logger:           logger,
	}
}

// GenerateChat sends a chat completion request to Claude
func (c *Client) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.defaultModel
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.defaultMaxTokens
	}
	req.Stream = false

	var resp ChatResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/v1/messages", req, &resp); err != nil {
		return nil, fmt.Errorf("generating chat completion: %w", err)
	}

	return &resp, nil
}

// makeRequest sends an HTTP request, retrying with exponential backoff when
// maxRetries is greater than zero.
func (c *Client) makeRequest(ctx context.Context, method, path string, body, response any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(bodyBytes))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", c.apiVersion)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}

		c.logger.Debug("claude API response",
			"status", resp.StatusCode,
			"content_length", len(respBody))

		if resp.StatusCode != http.StatusOK {
			apiErr := c.handleErrorResponse(resp, respBody)
			// Client errors won't succeed on retry; 429 is the exception.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(apiErr)
			}
			return apiErr
		}

		if err := json.Unmarshal(respBody, response); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx))
}

// handleErrorResponse converts an API error body into a structured error
func (c *Client) handleErrorResponse(resp *http.Response, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.ErrorDetails.Message == "" {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	return &apiErr
}
