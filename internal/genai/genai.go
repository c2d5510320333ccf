// Package genai provides GenAI-enhanced operations using the OpenAI API.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ClientInterface defines the generative operations consumed by the NLU
// fallback, so tests can substitute a mock.
type ClientInterface interface {
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	client openai.Client
	model  openai.ChatModel
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  openai.ChatModel
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding the environment.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithModel sets the chat model to use.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// NewClient initializes a GenAI client, reading OPENAI_API_KEY from the
// environment when no key option is given.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		slog.Error("GenAI client API key not set")
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	model := cfg.Model
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	slog.Debug("GenAI client initialized", "model", model)
	return &Client{client: openai.NewClient(option.WithAPIKey(apiKey)), model: model}, nil
}

// GeneratePrompt generates a response from the system and user prompts.
func (c *Client) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		slog.Error("GenAI GeneratePrompt failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		slog.Error("GenAI GeneratePrompt returned no choices")
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
