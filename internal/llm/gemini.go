package llm

import (
	"context"
	"fmt"

	"ai-personal-trainer/internal/config"
	"ai-personal-trainer/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient is a client for the Google Gemini API. It implements both
// TextGenerator and ChatGenerator.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelName: cfg.GeminiModel}, nil
}

func (c *GeminiClient) model() *genai.GenerativeModel {
	m := c.client.GenerativeModel(c.modelName)
	// Plans are consumed as structured output, so force JSON responses.
	m.GenerationConfig.ResponseMIMEType = "application/json"
	return m
}

// GenerateContent sends a single prompt to the Gemini model and returns the
// generated text plus token usage.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	resp, err := c.model().GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}
	return c.toContentResponse(resp)
}

// GenerateChat replays a conversation against the model, seeded with a system
// instruction, and returns the model's reply to the final turn.
func (c *GeminiClient) GenerateChat(ctx context.Context, system string, turns []ChatTurn) (ContentResponse, error) {
	if len(turns) == 0 {
		return ContentResponse{}, fmt.Errorf("no conversation turns provided")
	}

	m := c.model()
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := m.StartChat()
	for _, turn := range turns[:len(turns)-1] {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate chat response: %w", err)
	}
	return c.toContentResponse(resp)
}

func (c *GeminiClient) toContentResponse(resp *genai.GenerateContentResponse) (ContentResponse, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return ContentResponse{}, fmt.Errorf("generated content is not text")
	}

	usage := shared.TokenUsage{Model: c.modelName}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return ContentResponse{Content: string(text), Usage: usage}, nil
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
