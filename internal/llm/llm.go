package llm

import (
	"context"
	"errors"

	"savviwell/internal/shared"
)

// ErrVisionUnsupported is returned by providers without image input.
var ErrVisionUnsupported = errors.New("provider does not support image input")

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// VisionGenerator generates text from a prompt and an image. imageURL may
// be an http(s) URL or a base64 data URL.
type VisionGenerator interface {
	GenerateFromImage(ctx context.Context, prompt, imageURL string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// Client is a provider that handles both text and image prompts.
type Client interface {
	TextGenerator
	VisionGenerator
	Closer
}
