package gateway

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// #region client

// GeminiClient is the alternative provider, wrapping the official genai
// SDK. Selected with CARSAGE_PROVIDER=gemini; the SDK reads
// GEMINI_API_KEY from the environment.
type GeminiClient struct {
	cli         *genai.Client
	rateLimiter *RateLimiter
}

// NewGeminiClient creates a Gemini-backed gateway client.
func NewGeminiClient(ctx context.Context, requestsPerMinute float64) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiClient{
		cli:         cli,
		rateLimiter: NewRateLimiter(requestsPerMinute),
	}, nil
}

// Close stops the rate limiter.
func (g *GeminiClient) Close() {
	g.rateLimiter.Stop()
}

// #endregion

// #region complete

// Complete flattens the role-tagged transcript into a single prompt and
// returns the first candidate's text.
func (g *GeminiClient) Complete(ctx context.Context, messages []ChatMessage, opts Options) (string, error) {
	if err := g.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}

	temp := float32(opts.Temperature)
	resp, err := g.cli.Models.GenerateContent(ctx, opts.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: b.String()}}}},
		&genai.GenerateContentConfig{Temperature: &temp},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyCompletion
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// #endregion
