package llm

import "context"

// LLM is a chat-completion client used by the gateway to summarize content
// and extract keywords. The gateway only ever issues single-turn prompts
// against it, so the surface stays to the one method actually called:
// no chat history, streaming, or tool calling.
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
