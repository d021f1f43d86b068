package llm

import (
	"context"

	"ai-personal-trainer/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// ChatTurn is a single message in a multi-turn conversation.
type ChatTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// TextGenerator is an interface for generating text from a single prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// ChatGenerator is an interface for generating a response to a conversation,
// seeded with a system instruction.
type ChatGenerator interface {
	GenerateChat(ctx context.Context, system string, turns []ChatTurn) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
