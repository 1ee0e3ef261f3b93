// ABOUTME: Gemini answer provider over the OpenAI-compatible chat completions API
// ABOUTME: Wraps interviewer questions with the assistant system prompt and normalizes responses

package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/2389/interview-gateway/internal/config"
)

// ErrAPIKeyMissing is returned by New when no API key is configured.
var ErrAPIKeyMissing = errors.New("GEMINI_API_KEY is not set")

// emptyResponseFallback is returned when the model produces no text.
// An empty model response is not an error: the caller gets an apology
// instead of a failure.
const emptyResponseFallback = "Sorry, I can't suggest an answer for this question right now."

// defaultBaseURL is Gemini's OpenAI-compatible endpoint.
const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Options configures the Gemini client.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string // override for tests; defaults to the Gemini endpoint
}

// Client generates interview answer suggestions via the Gemini API.
type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

// New creates a Gemini client. Returns ErrAPIKeyMissing when no key is
// configured so callers can run without answer generation.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := openai.DefaultConfig(opts.APIKey)
	clientConfig.BaseURL = opts.BaseURL
	if clientConfig.BaseURL == "" {
		clientConfig.BaseURL = defaultBaseURL
	}

	model := opts.Model
	if model == "" {
		model = config.DefaultModel
	}

	return &Client{
		api:    openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger.With("component", "gemini"),
	}, nil
}

// GenerateAnswer produces an answer suggestion for an interviewer question.
// The call runs to completion or failure: no retry, no internal timeout.
func (c *Client) GenerateAnswer(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf("%s\n\nInterviewer question: %s\n\nSuggested answer:", config.SystemPrompt, question)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("gemini chat completion: %w", err)
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if text == "" {
		c.logger.Warn("gemini returned an empty response", "question", truncate(question, 50))
		return emptyResponseFallback, nil
	}

	c.logger.Info("answer generated", "question", truncate(question, 50))
	return text, nil
}

// TestConnection sends a minimal probe request for startup diagnostics.
func (c *Client) TestConnection(ctx context.Context) bool {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: 8,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hello"},
		},
	})
	if err != nil {
		c.logger.Error("gemini connection test failed", "error", err)
		return false
	}
	return len(resp.Choices) > 0 && strings.TrimSpace(resp.Choices[0].Message.Content) != ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
