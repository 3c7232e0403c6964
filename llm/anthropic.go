package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// AnthropicAPIURL is the default Anthropic Messages API endpoint.
const AnthropicAPIURL = "https://api.anthropic.com/v1"

// AnthropicAPIVersion is the API version header value the Messages API requires.
const AnthropicAPIVersion = "2023-06-01"

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-3-5-sonnet-20241022"

// AnthropicLLM is a chat-completion client for Claude models via the
// Messages API (no SDK for this provider ships in the dependency set, so
// requests are built and sent directly).
type AnthropicLLM struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     *slog.Logger
}

// AnthropicOption configures an AnthropicLLM.
type AnthropicOption func(*AnthropicLLM)

// WithAnthropicAPIKey sets the API key.
func WithAnthropicAPIKey(apiKey string) AnthropicOption {
	return func(a *AnthropicLLM) { a.apiKey = apiKey }
}

// WithAnthropicBaseURL overrides the Messages API base URL.
func WithAnthropicBaseURL(baseURL string) AnthropicOption {
	return func(a *AnthropicLLM) { a.baseURL = baseURL }
}

// WithAnthropicModel sets the model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(a *AnthropicLLM) { a.model = model }
}

// WithAnthropicMaxTokens sets the max_tokens field sent with every request.
func WithAnthropicMaxTokens(maxTokens int) AnthropicOption {
	return func(a *AnthropicLLM) { a.maxTokens = maxTokens }
}

// NewAnthropicLLM builds an AnthropicLLM, defaulting the API key to
// ANTHROPIC_API_KEY when WithAnthropicAPIKey isn't supplied.
func NewAnthropicLLM(opts ...AnthropicOption) *AnthropicLLM {
	a := &AnthropicLLM{
		apiKey:     os.Getenv("ANTHROPIC_API_KEY"),
		baseURL:    AnthropicAPIURL,
		model:      DefaultAnthropicModel,
		maxTokens:  4096,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
}

type anthropicError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a single user-role message to the Messages API and
// concatenates the text blocks of the reply.
func (a *AnthropicLLM) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", AnthropicAPIVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic response read: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr anthropicError
		json.Unmarshal(respBody, &apiErr)
		a.logger.Warn("anthropic completion failed", "status", resp.StatusCode, "message", apiErr.Error.Message)
		return "", fmt.Errorf("anthropic completion (%d): %s", resp.StatusCode, apiErr.Error.Message)
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("anthropic response decode: %w", err)
	}

	var text string
	for _, block := range result.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

var _ LLM = (*AnthropicLLM)(nil)
