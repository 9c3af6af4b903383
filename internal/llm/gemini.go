package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// GeminiClient implements Client on top of the Google GenAI SDK.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a Gemini-backed client. An empty modelName selects
// the default model.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if modelName == "" {
		modelName = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{client: client, modelName: modelName}, nil
}

// Generate implements Client.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	var contents []*genai.Content
	for _, turn := range req.History {
		role := genai.Role(genai.RoleUser)
		if turn.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))

	temp := req.Temperature
	topP := req.TopP
	if topP == 0 {
		topP = 0.9
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: maxTokens,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	res, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
