// Package ai talks to the generative-text providers used for label choice
// and flashcard enrichment.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

// Generator turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AIError represents an error from the AI API
type AIError struct {
	Provider    string
	Message     string
	StatusCode  int
	RequestID   string
	RawResponse string
}

func (e *AIError) Error() string {
	msg := fmt.Sprintf("AI API error (%d): %s", e.StatusCode, e.Message)
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.RequestID != "" {
		msg += fmt.Sprintf("\n  request-id: %s", e.RequestID)
	}
	if e.RawResponse != "" {
		msg += fmt.Sprintf("\n  raw: %s", e.RawResponse)
	}
	return msg
}

// Unwrap lets callers match provider failures with domain.ErrUpstreamUnavailable.
func (e *AIError) Unwrap() error { return domain.ErrUpstreamUnavailable }

// IsAIError checks if an error is an AIError
func IsAIError(err error) bool {
	var aiErr *AIError
	return errors.As(err, &aiErr)
}

// ClaudeClient implements Generator using the Claude API
type ClaudeClient struct {
	client  *anthropic.Client
	model   anthropic.Model
	timeout time.Duration
}

// NewClaudeClient creates a new Claude API client
func NewClaudeClient(apiKey, model string, timeout time.Duration) (*ClaudeClient, error) {
	if err := validateAPIKey(apiKey); err != nil {
		return nil, err
	}
	if strings.TrimSpace(model) == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return &ClaudeClient{
		client:  &client,
		model:   anthropic.Model(model),
		timeout: timeout,
	}, nil
}

// Generate sends a single user message and returns the concatenated text blocks.
func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &AIError{
				Provider:    "claude",
				Message:     apiErr.Error(),
				StatusCode:  apiErr.StatusCode,
				RequestID:   apiErr.RequestID,
				RawResponse: apiErr.RawJSON(),
			}
		}
		return "", &AIError{
			Provider:   "claude",
			Message:    fmt.Sprintf("failed to call Claude API: %v", err),
			StatusCode: 500,
		}
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", &AIError{Provider: "claude", Message: "empty response", StatusCode: 502}
	}

	return b.String(), nil
}

// validateAPIKey checks if the API key is valid
func validateAPIKey(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	return nil
}
