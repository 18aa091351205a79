// Package openai implements the reasoning engine on the OpenAI chat API
// (or any compatible endpoint via BaseURL) using sashabaranov/go-openai.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/sakif/knowledge-hub/internal/apperror"
	"github.com/sakif/knowledge-hub/internal/engine"
)

// Compile-time check that *Client satisfies engine.Engine.
var _ engine.Engine = (*Client)(nil)

// Config holds everything needed to reach the completion API.
// All of it is externally supplied (env vars in cmd/server) — provider
// endpoint, credentials, model and temperature are collaborator config,
// not part of the core contract.
type Config struct {
	APIKey       string
	BaseURL      string // empty = api.openai.com; set for compatible servers
	Model        string
	Temperature  float32
	SystemPrompt string
}

// DefaultConfig returns a config with sensible defaults for everything
// except the API key, which has no sensible default.
func DefaultConfig() Config {
	return Config{
		Model:        "gpt-4o-mini",
		Temperature:  0.7,
		SystemPrompt: "You are a metabolic reconstruction assistant. Provide detailed explanations of metabolic pathways.",
	}
}

// Client calls the chat-completion API. Safe for concurrent use — each
// session's calls are independent requests.
type Client struct {
	client *gopenai.Client
	config Config
	logger *slog.Logger
}

// New creates a Client. The API key is the one thing we refuse to default:
// without it every call would fail later and more confusingly.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}

	clientCfg := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger.Info("reasoning engine initialised",
		slog.String("model", cfg.Model),
		slog.String("baseURL", clientCfg.BaseURL),
	)

	return &Client{
		client: gopenai.NewClientWithConfig(clientCfg),
		config: cfg,
		logger: logger,
	}, nil
}

// request builds the chat-completion request shared by both call styles.
// The whole inbound message is the unit of work — no truncation, no
// batching; history, if any, is the engine's concern.
func (c *Client) request(prompt string, stream bool) gopenai.ChatCompletionRequest {
	messages := []gopenai.ChatCompletionMessage{}
	if c.config.SystemPrompt != "" {
		messages = append(messages, gopenai.ChatCompletionMessage{
			Role:    gopenai.ChatMessageRoleSystem,
			Content: c.config.SystemPrompt,
		})
	}
	messages = append(messages, gopenai.ChatCompletionMessage{
		Role:    gopenai.ChatMessageRoleUser,
		Content: prompt,
	})

	return gopenai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		Stream:      stream,
	}
}

// Complete runs one completion and returns the full reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(prompt, false))
	if err != nil {
		c.logger.Error("completion call failed", slog.String("error", err.Error()))
		return "", apperror.Upstream("reasoning engine call failed")
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn("completion returned no choices")
		return "", apperror.Upstream("reasoning engine returned an empty reply")
	}

	return resp.Choices[0].Message.Content, nil
}

// StreamComplete forwards each delta to emit as it arrives. Fragments are
// emitted in the order the API produces them, with no buffering beyond the
// fragment in hand.
func (c *Client) StreamComplete(ctx context.Context, prompt string, emit func(string) error) error {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(prompt, true))
	if err != nil {
		c.logger.Error("completion stream failed to open", slog.String("error", err.Error()))
		return apperror.Upstream("reasoning engine call failed")
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// Context cancellation means OUR caller went away (client
			// disconnect) — propagate it unwrapped so the gateway can
			// distinguish it from an engine-side failure.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("completion stream broke", slog.String("error", err.Error()))
			return apperror.Upstream("reasoning engine stream failed")
		}

		if len(resp.Choices) == 0 {
			continue
		}
		fragment := resp.Choices[0].Delta.Content
		if fragment == "" {
			continue
		}
		if err := emit(fragment); err != nil {
			return err
		}
	}
}
