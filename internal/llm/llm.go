// Package llm defines the completion provider abstraction used by the
// analysis engine. A single provider is constructed at process start when a
// credential is configured; otherwise no client exists and the engine runs
// in mock mode.
package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/tildaslashalef/reviewd/internal/claude"
	"github.com/tildaslashalef/reviewd/internal/config"
	"github.com/tildaslashalef/reviewd/internal/loggy"
)

// ChatRequest represents a generic chat request to a completion provider
type ChatRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Message represents a chat message with role and content
type Message struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// ChatResponse represents a response from a chat request
type ChatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// Client defines the interface for completion provider clients
type Client interface {
	// GenerateChat sends a non-streaming chat request
	GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// NewProvider constructs the configured provider client, or returns nil when
// no credential is present and the engine should run in mock mode.
func NewProvider(cfg *config.Config, logger *loggy.Logger) Client {
	if cfg.Claude.APIKey == "" {
		return nil
	}

	limiter := newLimiter(cfg.Claude.RequestsPerMinute, cfg.Claude.BurstLimit)
	logger.Info("initialized claude provider",
		"base_url", cfg.Claude.BaseURL,
		"model", cfg.Claude.Model,
		"rpm", cfg.Claude.RequestsPerMinute)

	return &claudeAdapter{
		client:  claude.NewClient(cfg.Claude, logger),
		limiter: limiter,
	}
}

// newLimiter creates a rate limiter from RPM and burst; a non-positive RPM
// disables limiting.
func newLimiter(rpm, burst int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// claudeAdapter adapts the claude client to the generic Client interface,
// applying rate limiting before each call.
type claudeAdapter struct {
	client  *claude.Client
	limiter *rate.Limiter
}

func (a *claudeAdapter) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	messages := make([]claude.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, claude.Message{Role: msg.Role, Content: msg.Content})
	}

	claudeReq := claude.ChatRequest{
		Model:     req.Model,
		System:    req.System,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 {
		claudeReq.Temperature = &req.Temperature
	}

	resp, err := a.client.GenerateChat(ctx, claudeReq)
	if err != nil {
		return nil, err
	}

	return &ChatResponse{
		Content: resp.Text(),
		Model:   resp.Model,
	}, nil
}
