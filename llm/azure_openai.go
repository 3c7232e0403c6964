package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultAzureAPIVersion is used when NewAzureOpenAILLMWithConfig receives
// an empty apiVersion.
const DefaultAzureAPIVersion = "2024-02-15-preview"

// AzureOpenAILLM is a chat-completion client for an Azure OpenAI
// deployment, built on the same go-openai client as OpenAILLM with Azure's
// endpoint/api-version configuration.
type AzureOpenAILLM struct {
	client *openai.Client
	model  string // Azure deployment name
	logger *slog.Logger
}

// NewAzureOpenAILLMWithConfig builds an AzureOpenAILLM from explicit
// endpoint, API key, deployment name, and API version (falling back to
// DefaultAzureAPIVersion when apiVersion is empty).
func NewAzureOpenAILLMWithConfig(endpoint, apiKey, deployment, apiVersion string) *AzureOpenAILLM {
	if apiVersion == "" {
		apiVersion = DefaultAzureAPIVersion
	}

	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	cfg.APIVersion = apiVersion

	return &AzureOpenAILLM{
		client: openai.NewClientWithConfig(cfg),
		model:  deployment,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// Complete sends a single user-role prompt to the configured deployment.
func (a *AzureOpenAILLM) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		a.logger.Warn("azure openai completion failed", "deployment", a.model, "error", err)
		return "", fmt.Errorf("azure openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("azure openai completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ LLM = (*AzureOpenAILLM)(nil)
