package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// ChatClient abstracts the generative model call needed by the extractor.
// Implementations return the concatenated text of the first usable candidate.
type ChatClient interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
	Model() string
}

// GeminiChatClient adapts the Gemini API to the ChatClient interface.
type GeminiChatClient struct {
	client *genai.Client
	model  string
}

// NewGeminiChatClient creates a ChatClient backed by Gemini.
func NewGeminiChatClient(ctx context.Context, apiKey, model string) (*GeminiChatClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiChatClient{client: client, model: model}, nil
}

func (g *GeminiChatClient) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}

	var text string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
	}
	if text == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}

func (g *GeminiChatClient) Model() string {
	return g.model
}

// IsRateLimited reports whether err is the provider telling us to slow down.
func IsRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	return false
}
