// Package llm talks to the Anthropic Messages API.  Client drives the
// phone agent's conversation and rates transcripts for the quality
// scorer.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-phone-agent/internal/agent"
	"github.com/iliyamo/restaurant-phone-agent/internal/metrics"
)

const (
	DefaultModel   = "claude-sonnet-4-20250514"
	DefaultBaseURL = "https://api.anthropic.com/v1"
	APIVersion     = "2023-06-01"

	maxAttempts = 3
)

// ErrNoAPIKey is returned by every request when no key is configured.
var ErrNoAPIKey = errors.New("anthropic api key not configured")

// Config holds the client settings.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	BaseURL     string
}

// Client is an Anthropic Messages API client.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retryDelay time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewClient fills defaults into cfg and returns a Client.  m may be nil.
func NewClient(cfg Config, m *metrics.Metrics, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 150
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retryDelay: time.Second,
		metrics:    m,
		logger:     logger,
	}
}

type messagesRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	System      string           `json:"system,omitempty"`
	Messages    []agent.Message  `json:"messages"`
	Tools       []agent.ToolSpec `json:"tools,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
}

type messagesResponse struct {
	ID         string        `json:"id"`
	Content    []agent.Block `json:"content"`
	StopReason string        `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// statusError is a non-200 answer from the API.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("anthropic api status %d: %s", e.Status, e.Body)
}

// Next implements agent.Model.
func (c *Client) Next(ctx context.Context, system string, messages []agent.Message, tools []agent.ToolSpec) (agent.Reply, error) {
	resp, err := c.send(ctx, messagesRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      system,
		Messages:    messages,
		Tools:       tools,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return agent.Reply{}, err
	}

	var reply agent.Reply
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case agent.BlockText:
			if text.Len() > 0 {
				text.WriteByte(' ')
			}
			text.WriteString(strings.TrimSpace(block.Text))
		case agent.BlockToolUse:
			reply.ToolCalls = append(reply.ToolCalls, agent.ToolCall{ID: block.ID, Name: block.Name, Input: block.Input})
		}
	}
	reply.Text = text.String()
	return reply, nil
}

// send posts req, retrying transient failures.
func (c *Client) send(ctx context.Context, req messagesRequest) (*messagesResponse, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.retryDelay
			c.logger.Warn("retrying anthropic request",
				zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		resp, err := c.post(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("anthropic request failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (*messagesResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", APIVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{Status: resp.StatusCode, Body: string(respBody)}
	}
	var out messagesResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, 529:
			return true
		}
		return strings.Contains(strings.ToLower(se.Body), "overloaded")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	switch {
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ETIMEDOUT):
		return true
	}
	return false
}
