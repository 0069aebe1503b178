package gemini

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// SDKClient calls the same endpoint through the official genai SDK.
type SDKClient struct {
	client *genai.Client
	model  string
}

// NewSDKClient builds an SDK-backed client. baseURL and httpClient may be
// empty; tests point them at an httptest server.
func NewSDKClient(ctx context.Context, apiKey, model, baseURL string, httpClient *http.Client) (*SDKClient, error) {
	if model == "" {
		model = DefaultModel
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL, APIVersion: apiVersion}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &SDKClient{client: client, model: model}, nil
}

func (c *SDKClient) Model() string { return c.model }

func (c *SDKClient) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", ErrMalformedResponse
	}
	text, err := result.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return text, nil
}
