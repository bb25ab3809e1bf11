// Package llm implements the conversational collaborators (intent routing,
// SQL generation, response drafting) on an OpenAI-compatible chat API.
package llm

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	apperrors "github.com/openclaw/dbagent-server-go/internal/errors"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client is a thin completion wrapper shared by the router, generator, and
// responder.
type Client struct {
	api   openai.Client
	model string
}

func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:   openai.NewClient(opts...),
		model: cfg.Model,
	}
}

// Complete runs one chat completion and returns the trimmed assistant text.
func (c *Client) Complete(ctx context.Context, messages ...openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", apperrors.GenerationFailed(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.ErrCodeGeneration, "model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
