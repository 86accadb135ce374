// Package gemini wraps the google.golang.org/genai SDK behind the small
// text-generation surface this application needs.
package gemini

import (
	"context"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// Client defines the Gemini API operations used by the gateway.
type Client interface {
	GenerateText(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest is our own request type for GenerateText.
type GenerateRequest struct {
	Model       string
	Prompt      string
	Temperature *float32
}

// GenerateResponse is our own response type from GenerateText.
type GenerateResponse struct {
	Text        string
	Model       string
	TotalTokens int32
}

type sdkClient struct {
	apiKey string
	client *genai.Client
}

// NewClient creates a new Gemini client backed by the genai SDK. SDK
// construction is deferred to the first call when it fails up front.
func NewClient(apiKey string) Client {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		client = nil
	}
	return &sdkClient{apiKey: apiKey, client: client}
}

func (c *sdkClient) GenerateText(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = defaultModel
	}

	client := c.client
	if client == nil {
		var err error
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, eris.Wrap(err, "gemini: create client")
		}
		c.client = client
	}

	content := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: req.Prompt},
			},
		},
	}

	var cfg *genai.GenerateContentConfig
	if req.Temperature != nil {
		cfg = &genai.GenerateContentConfig{Temperature: req.Temperature}
	}

	result, err := client.Models.GenerateContent(ctx, model, content, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: generate content")
	}

	resp := &GenerateResponse{Model: model}
	if len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		for _, part := range result.Candidates[0].Content.Parts {
			if part != nil && part.Text != "" {
				resp.Text += part.Text
			}
		}
	}
	if result.UsageMetadata != nil {
		resp.TotalTokens = result.UsageMetadata.TotalTokenCount
	}
	return resp, nil
}
