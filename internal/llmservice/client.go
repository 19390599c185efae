package llmservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"filing-rag/internal/config"
)

// Kind tells how a completion's text was obtained.
type Kind string

const (
	// KindStructured is the content of the first message choice.
	KindStructured Kind = "structured"
	// KindRaw means the provider gave no message content to read.
	KindRaw Kind = "raw"
)

type Completion struct {
	Kind Kind
	Text string
}

// Completer is the language-model collaborator of the query pipeline.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ...llms.CallOption) (Completion, error)
}

// NewModel builds a langchaingo model for the configured provider. model
// overrides cfg.Model when not empty.
func NewModel(cfg *config.LLMConfig, model string) (llms.Model, error) {
	if model == "" {
		model = cfg.Model
	}
	log.Debug().Str("provider", cfg.Provider).Str("base_url", cfg.BaseURL).Str("model", model).Msg("Creating llm client")

	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai client: %w", err)
		}
		return llm, nil
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// Client sends single-prompt requests to a model.
type Client struct {
	model   llms.Model
	timeout time.Duration
}

func NewClient(cfg *config.LLMConfig, model string) (*Client, error) {
	llm, err := NewModel(cfg, model)
	if err != nil {
		return nil, err
	}
	return NewClientWithModel(llm, cfg.Timeout), nil
}

// NewClientWithModel wraps an existing model. A zero timeout means the
// caller's context is the only deadline.
func NewClientWithModel(model llms.Model, timeout time.Duration) *Client {
	return &Client{model: model, timeout: timeout}
}

// Complete sends prompt as one human message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string, opts ...llms.CallOption) (Completion, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}
	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to generate content: %w", err)
	}
	return fromResponse(resp), nil
}

func fromResponse(resp *llms.ContentResponse) Completion {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		log.Warn().Msg("llm returned no choices")
		return Completion{Kind: KindRaw}
	}
	return Completion{Kind: KindStructured, Text: resp.Choices[0].Content}
}
