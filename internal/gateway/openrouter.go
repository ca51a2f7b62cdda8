package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// #region wire-types

type openRouterRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type openRouterResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code,omitempty"`
	} `json:"error,omitempty"`
}

// #endregion

// #region client

// OpenRouterClient talks to the OpenRouter chat-completions endpoint.
type OpenRouterClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *RateLimiter
	logger      *slog.Logger
}

// NewOpenRouterClient creates a client with a bounded request timeout
// and request pacing.
func NewOpenRouterClient(apiKey string, requestsPerMinute float64, timeout time.Duration, logger *slog.Logger) *OpenRouterClient {
	return &OpenRouterClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     defaultOpenRouterURL,
		apiKey:      apiKey,
		rateLimiter: NewRateLimiter(requestsPerMinute),
		logger:      logger,
	}
}

// SetBaseURL overrides the endpoint. Used by tests.
func (c *OpenRouterClient) SetBaseURL(url string) {
	c.baseURL = url
}

// Close stops the rate limiter.
func (c *OpenRouterClient) Close() {
	c.rateLimiter.Stop()
}

// #endregion

// #region complete

// Complete sends the transcript and returns the raw completion text.
// Any non-2xx status, provider-level error object, or empty choice list
// is an explicit failure; there is no retry at this layer.
func (c *OpenRouterClient) Complete(ctx context.Context, messages []ChatMessage, opts Options) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(openRouterRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("openrouter non-200 status",
			"status", resp.StatusCode,
			"body", string(respBody),
		)
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed openRouterResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openrouter error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}

	c.logger.Debug("openrouter completion",
		"model", opts.Model,
		"tokens_used", parsed.Usage.TotalTokens,
	)

	return parsed.Choices[0].Message.Content, nil
}

// #endregion
