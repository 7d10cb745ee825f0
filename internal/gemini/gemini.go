// Package gemini provides the generative text adapter backed by the Google
// Gemini API. It is the only pipeline component permitted to fail loudly:
// callers translate its errors into fallback payloads.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/lesson-service/internal/core"
	"github.com/book-expert/logger"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrMissingAPIKey indicates no Gemini credential was configured.
var ErrMissingAPIKey = errors.New("gemini api key is not configured")

// Client implements core.TextGenerator against the Gemini API.
type Client struct {
	client      *genai.Client
	model       string
	maxAttempts int
	retryDelay  time.Duration
	log         *logger.Logger
}

// New creates a Gemini client for the given model with a bounded retry
// budget per call.
func New(
	ctx context.Context,
	apiKey, model string,
	maxAttempts int,
	retryDelay time.Duration,
	log *logger.Logger,
) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		client:      genaiClient,
		model:       model,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		log:         log,
	}, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	err := c.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close gemini client: %w", err)
	}

	return nil
}

// Generate sends the prompt and returns the concatenated text of the model
// response. Transport failures and empty responses are retried up to the
// configured attempt budget with a fixed delay between attempts; the last
// failure is returned when the budget is exhausted.
func (c *Client) Generate(ctx context.Context, prompt string, opts core.GenerationOptions) (string, error) {
	model := c.client.GenerativeModel(c.model)

	if opts.Temperature > 0 {
		model.SetTemperature(opts.Temperature)
	}

	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxOutputTokens)
	}

	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(c.retryDelay)
		}

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			lastErr = fmt.Errorf("%w: attempt %d: %w", core.ErrTransport, attempt, err)

			c.log.Warn("Gemini call failed on attempt %d/%d: %v", attempt, c.maxAttempts, err)

			continue
		}

		text := collectText(resp)
		if text == "" {
			lastErr = fmt.Errorf("%w: attempt %d", core.ErrEmptyResponse, attempt)

			c.log.Warn("Gemini returned no text on attempt %d/%d", attempt, c.maxAttempts)

			continue
		}

		return text, nil
	}

	return "", lastErr
}

// collectText concatenates every text part across all candidates. Responses
// routinely split output over multiple parts.
func collectText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			text, ok := part.(genai.Text)
			if ok {
				builder.WriteString(string(text))
			}
		}
	}

	return strings.TrimSpace(builder.String())
}
