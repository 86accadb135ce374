package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filippefrulli/ranklens-sub000/internal/model"
	"github.com/filippefrulli/ranklens-sub000/pkg/openai"
)

type fakeCaller struct {
	text string
	err  error
}

func (c *fakeCaller) Complete(_ context.Context, _, _ string) (string, error) {
	return c.text, c.err
}

func TestGatewayComplete(t *testing.T) {
	g := NewGateway(Keys{})
	g.Register(model.ProviderOpenAI, &fakeCaller{text: "1. Acme\n2. Widgets"})

	text, elapsed, err := g.Complete(context.Background(), model.ProviderOpenAI, "gpt-4o-mini", "rank these")
	require.NoError(t, err)
	assert.Equal(t, "1. Acme\n2. Widgets", text)
	assert.GreaterOrEqual(t, elapsed.Nanoseconds(), int64(0))
}

type countingCaller struct {
	calls int
	err   error
}

func (c *countingCaller) Complete(_ context.Context, _, _ string) (string, error) {
	c.calls++
	return "", c.err
}

// Rate limits and server errors must surface after a single provider call;
// the orchestrator's attempt loop is the only place a call is repeated.
func TestGatewayCompleteDoesNotRetryHTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"rate limited", 429},
		{"server error", 500},
		{"bad gateway", 502},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := &countingCaller{err: &openai.APIError{StatusCode: tt.status, Body: "nope"}}
			g := NewGateway(Keys{})
			g.Register(model.ProviderOpenAI, caller)

			_, _, err := g.Complete(context.Background(), model.ProviderOpenAI, "gpt-4o-mini", "rank these")
			require.Error(t, err)
			assert.Equal(t, tt.status, HTTPStatus(err))
			assert.Equal(t, 1, caller.calls)
		})
	}
}

func TestGatewayCompleteUnconfigured(t *testing.T) {
	g := NewGateway(Keys{})

	_, _, err := g.Complete(context.Background(), model.ProviderMistral, "", "prompt")
	require.Error(t, err)
	assert.True(t, IsNotConfigured(err))
	assert.True(t, IsAuthError(err))
}

func TestGatewayOnlyRegistersKeyedProviders(t *testing.T) {
	g := NewGateway(Keys{OpenAI: "sk-test", Anthropic: "sk-ant-test"})

	assert.True(t, g.Configured(model.ProviderOpenAI))
	assert.True(t, g.Configured(model.ProviderAnthropic))
	assert.False(t, g.Configured(model.ProviderGemini))
	assert.False(t, g.Configured(model.ProviderPerplexity))
	assert.False(t, g.Configured(model.ProviderMistral))
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"401 status", &openai.APIError{StatusCode: 401, Body: "bad key"}, true},
		{"403 status", &openai.APIError{StatusCode: 403, Body: "forbidden"}, true},
		{"500 status", &openai.APIError{StatusCode: 500, Body: "oops"}, false},
		{"api key message", errors.New("invalid api key provided"), true},
		{"unauthorized message", errors.New("request Unauthorized"), true},
		{"authentication message", errors.New("authentication failed"), true},
		{"unrelated", errors.New("connection reset by peer"), false},
		{"not configured", &ConfigurationError{Provider: model.ProviderOpenAI, Reason: "no API key"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthError(tt.err))
		})
	}
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.False(t, IsTimeout(errors.New("nope")))
	assert.False(t, IsTimeout(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 429, HTTPStatus(&openai.APIError{StatusCode: 429, Body: "slow down"}))
	assert.Equal(t, 0, HTTPStatus(errors.New("plain")))
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")
	content := `providers:
  - id: openai
    name: OpenAI
    model: gpt-4o-mini
    active: true
  - id: anthropic
    name: Anthropic
    active: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, reg.Providers, 2)

	models := reg.Models()
	require.Len(t, models, 2)
	assert.Equal(t, "openai", models[0].ID)
	assert.Equal(t, "gpt-4o-mini", models[0].DefaultModel)
	assert.True(t, models[0].Active)
	// model omitted in the file falls back to the built-in default
	assert.Equal(t, "claude-haiku-4-5-20251001", models[1].DefaultModel)
	assert.False(t, models[1].Active)
}

func TestLoadRegistryUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  - id: grok\n    name: Grok\n"), 0o644))

	_, err := LoadRegistry(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider id")
}
