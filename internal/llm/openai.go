package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// OpenAIClient talks to any OpenAI-compatible endpoint through langchaingo.
type OpenAIClient struct {
	model     llms.Model
	modelName string
}

// NewOpenAIClient creates a client for modelName. An empty baseURL uses
// the OpenAI API.
func NewOpenAIClient(apiKey, modelName, baseURL string) (*OpenAIClient, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(modelName),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return &OpenAIClient{model: model, modelName: modelName}, nil
}

// GenerateContent sends a single user prompt.
func (c *OpenAIClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	return c.generate(ctx, llms.TextParts(schema.ChatMessageTypeHuman, prompt))
}

// GenerateFromImage sends a prompt with an attached image URL.
func (c *OpenAIClient) GenerateFromImage(ctx context.Context, prompt, imageURL string) (ContentResponse, error) {
	return c.generate(ctx, llms.MessageContent{
		Role: schema.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextContent{Text: prompt},
			llms.ImageURLPart(imageURL),
		},
	})
}

func (c *OpenAIClient) generate(ctx context.Context, msg llms.MessageContent) (ContentResponse, error) {
	resp, err := c.model.GenerateContent(ctx, []llms.MessageContent{msg}, llms.WithTemperature(0.2))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	choice := resp.Choices[0]
	out := ContentResponse{Content: choice.Content}
	out.Usage.Model = c.modelName
	out.Usage.PromptTokens = intFromInfo(choice.GenerationInfo, "PromptTokens")
	out.Usage.CompletionTokens = intFromInfo(choice.GenerationInfo, "CompletionTokens")
	out.Usage.TotalTokens = intFromInfo(choice.GenerationInfo, "TotalTokens")
	return out, nil
}

// Close is a no-op.
func (c *OpenAIClient) Close() error { return nil }

func intFromInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
