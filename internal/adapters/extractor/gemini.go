package extractor

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIClient adapts the Gemini SDK to ModelClient.
type GenAIClient struct {
	client *genai.Client
}

// NewGenAIClient creates a Gemini API client for the given key.
func NewGenAIClient(ctx context.Context, apiKey string) (*GenAIClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIClient{client: client}, nil
}

// Generate implements ModelClient.
func (c *GenAIClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
