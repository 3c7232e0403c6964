package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIBaseURL is used when neither an explicit base URL nor
// OPENAI_URL names an OpenAI-compatible endpoint.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAILLM is a chat-completion client backed by go-openai's client,
// shared with the openrouter provider (an OpenAI-compatible API reached
// through a different base URL).
type OpenAILLM struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAILLM builds an OpenAILLM. An empty apiKey falls back to
// OPENAI_API_KEY, an empty baseURL falls back to OPENAI_URL or
// DefaultOpenAIBaseURL, and an empty model falls back to gpt-3.5-turbo.
func NewOpenAILLM(baseURL, model, apiKey string) *OpenAILLM {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_URL")
		if baseURL == "" {
			baseURL = DefaultOpenAIBaseURL
		}
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &OpenAILLM{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// Complete sends a single user-role prompt and returns the first choice's
// text. The gateway never needs conversational history for summarization
// or keyword extraction, so a single-message request is all this builds.
func (o *OpenAILLM) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		o.logger.Warn("openai completion failed", "model", o.model, "error", err)
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ LLM = (*OpenAILLM)(nil)
