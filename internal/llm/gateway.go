// Package llm dispatches prompts to the configured language model providers
// behind a single gateway interface.
package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
	"github.com/filippefrulli/ranklens-sub000/pkg/anthropic"
	"github.com/filippefrulli/ranklens-sub000/pkg/gemini"
	"github.com/filippefrulli/ranklens-sub000/pkg/mistral"
	"github.com/filippefrulli/ranklens-sub000/pkg/openai"
	"github.com/filippefrulli/ranklens-sub000/pkg/perplexity"
)

// defaultTimeout bounds a single provider call.
const defaultTimeout = 60 * time.Second

// Caller sends a single prompt to one provider and returns its raw text.
type Caller interface {
	Complete(ctx context.Context, modelName, prompt string) (string, error)
}

// Gateway routes prompts to provider callers by provider id.
type Gateway struct {
	callers map[model.ProviderID]Caller
	timeout time.Duration
}

// Keys holds the API keys read from the environment or config. An empty key
// leaves the provider unregistered.
type Keys struct {
	OpenAI     string
	Gemini     string
	Anthropic  string
	Perplexity string
	Mistral    string
}

// Option adjusts gateway construction.
type Option func(*Gateway)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGateway builds a gateway with a caller per provider that has a key.
func NewGateway(keys Keys, opts ...Option) *Gateway {
	g := &Gateway{
		callers: make(map[model.ProviderID]Caller),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	if keys.OpenAI != "" {
		g.callers[model.ProviderOpenAI] = &openaiCaller{client: openai.NewClient(keys.OpenAI)}
	}
	if keys.Gemini != "" {
		g.callers[model.ProviderGemini] = &geminiCaller{client: gemini.NewClient(keys.Gemini)}
	}
	if keys.Anthropic != "" {
		g.callers[model.ProviderAnthropic] = &anthropicCaller{client: anthropic.NewClient(keys.Anthropic)}
	}
	if keys.Perplexity != "" {
		g.callers[model.ProviderPerplexity] = &perplexityCaller{client: perplexity.NewClient(keys.Perplexity)}
	}
	if keys.Mistral != "" {
		g.callers[model.ProviderMistral] = &mistralCaller{client: mistral.NewClient(keys.Mistral)}
	}
	return g
}

// Register installs or replaces the caller for a provider. Tests use this to
// inject fakes.
func (g *Gateway) Register(id model.ProviderID, c Caller) {
	g.callers[id] = c
}

// Configured reports whether a caller is registered for the provider.
func (g *Gateway) Configured(id model.ProviderID) bool {
	_, ok := g.callers[id]
	return ok
}

// Complete sends a prompt to the named provider and returns the raw response
// text. Calls are bounded by the gateway timeout on top of any deadline the
// caller already set. The gateway makes exactly one provider call per
// invocation; rate limits and server errors surface to the caller, whose own
// attempt loop is the only retry mechanism.
func (g *Gateway) Complete(ctx context.Context, id model.ProviderID, modelName, prompt string) (string, time.Duration, error) {
	caller, ok := g.callers[id]
	if !ok {
		return "", 0, &ConfigurationError{Provider: id, Reason: "no API key"}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := caller.Complete(ctx, modelName, prompt)
	elapsed := time.Since(start)
	if err != nil {
		zap.L().Debug("provider call failed",
			zap.String("provider", string(id)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return "", elapsed, err
	}
	return text, elapsed, nil
}

type openaiCaller struct {
	client openai.Client
}

func (c *openaiCaller) Complete(ctx context.Context, modelName, prompt string) (string, error) {
	resp, err := c.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

type perplexityCaller struct {
	client perplexity.Client
}

func (c *perplexityCaller) Complete(ctx context.Context, modelName, prompt string) (string, error) {
	resp, err := c.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: modelName,
		Messages: []perplexity.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

type mistralCaller struct {
	client mistral.Client
}

func (c *mistralCaller) Complete(ctx context.Context, modelName, prompt string) (string, error) {
	resp, err := c.client.ChatCompletion(ctx, mistral.ChatCompletionRequest{
		Model: modelName,
		Messages: []mistral.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

type anthropicCaller struct {
	client anthropic.Client
}

func (c *anthropicCaller) Complete(ctx context.Context, modelName, prompt string) (string, error) {
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model: modelName,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

type geminiCaller struct {
	client gemini.Client
}

func (c *geminiCaller) Complete(ctx context.Context, modelName, prompt string) (string, error) {
	resp, err := c.client.GenerateText(ctx, gemini.GenerateRequest{
		Model:  modelName,
		Prompt: prompt,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
