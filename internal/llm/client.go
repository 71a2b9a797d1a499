package llm

import (
	"context"

	"savviwell/internal/config"
)

// New builds the configured AI provider wrapped in the rate limiter. It
// returns nil when AI is disabled.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	var (
		c   Client
		err error
	)
	switch cfg.AIProvider {
	case config.ProviderGemini:
		c, err = NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.ProviderOpenAI:
		c, err = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	case config.ProviderGroq:
		c = NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return NewRateLimited(c, cfg.AIRequestsPerMinute), nil
}
