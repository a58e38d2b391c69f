package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Prompt is one chat completion request. System may be empty.
type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Generator turns a prompt into the raw text of a JSON object.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// OpenAIGenerator calls the chat completions API in JSON object mode.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator builds a generator. baseURL may be empty to use the
// public endpoint.
func NewOpenAIGenerator(apiKey, model, baseURL string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIGenerator{client: openai.NewClientWithConfig(cfg), model: model}
}

func (g *OpenAIGenerator) Model() string { return g.model }

func (g *OpenAIGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
