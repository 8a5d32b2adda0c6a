// Package agent builds prompts over CRM data, sends them to a language model
// and records every exchange in the agent run log.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ErrDisabled is returned when no language model is configured.
var ErrDisabled = errors.New("agent: no language model configured")

// Completion is a model response.
type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// LLM completes a single system + user prompt exchange.
type LLM interface {
	Complete(ctx context.Context, system, prompt string) (Completion, error)
}

// ModelNamer is implemented by an LLM that knows its configured model. The
// name is recorded on runs whose call failed before the model answered.
type ModelNamer interface {
	Model() string
}

// OpenAIConfig configures OpenAIClient.
type OpenAIConfig struct {
	APIKey        string
	Model         string
	BaseURL       string
	Timeout       time.Duration
	RatePerMinute int
}

// OpenAIClient is an LLM backed by the OpenAI chat completion API or any
// server speaking the same protocol.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewOpenAIClient returns ErrDisabled when cfg has no API key.
func NewOpenAIClient(cfg OpenAIConfig, log zerolog.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrDisabled
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
	}

	log.Info().Str("model", cfg.Model).Msg("initializing OpenAI client")
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.model }

// Complete waits for the rate limiter, then sends one chat completion.
func (c *OpenAIClient) Complete(ctx context.Context, system, prompt string) (Completion, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Completion{}, fmt.Errorf("rate limit wait: %w", err)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.log.Debug().Str("model", c.model).Msg("requesting chat completion")
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return Completion{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, errors.New("openai returned no choices")
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return Completion{
		Content:          resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
