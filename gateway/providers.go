package gateway

import (
	"github.com/MadBomber/ragdoll-core/config"
	"github.com/MadBomber/ragdoll-core/embedding"
	"github.com/MadBomber/ragdoll-core/llm"
	"github.com/MadBomber/ragdoll-core/ragerr"
)

// newLLMProvider constructs the llm.LLM client for one of the seven
// providers named in spec §4.3, following llm/openai.go's credential-
// presence-check pattern (constructor returns a typed "not configured"
// error the gateway routes to the fallback path, per §9's Design Note).
func newLLMProvider(cfg *config.Config, provider, model string) (llm.LLM, error) {
	switch provider {
	case "openai":
		if cfg.Credentials.OpenAI.APIKey == "" {
			return nil, ragerr.NewConfigurationError(provider, "OPENAI_API_KEY not configured", nil)
		}
		return llm.NewOpenAILLM(cfg.Credentials.OpenAI.BaseURL, model, cfg.Credentials.OpenAI.APIKey), nil

	case "anthropic":
		if cfg.Credentials.Anthropic.APIKey == "" {
			return nil, ragerr.NewConfigurationError(provider, "ANTHROPIC_API_KEY not configured", nil)
		}
		opts := []llm.AnthropicOption{llm.WithAnthropicAPIKey(cfg.Credentials.Anthropic.APIKey)}
		if model != "" {
			opts = append(opts, llm.WithAnthropicModel(model))
		}
		if cfg.Credentials.Anthropic.BaseURL != "" {
			opts = append(opts, llm.WithAnthropicBaseURL(cfg.Credentials.Anthropic.BaseURL))
		}
		return llm.NewAnthropicLLM(opts...), nil

	case "azure":
		if cfg.Credentials.Azure.APIKey == "" {
			return nil, ragerr.NewConfigurationError(provider, "AZURE_OPENAI_API_KEY not configured", nil)
		}
		return llm.NewAzureOpenAILLMWithConfig(cfg.Credentials.Azure.BaseURL, cfg.Credentials.Azure.APIKey, model, ""), nil

	case "ollama":
		opts := []llm.OllamaOption{}
		if cfg.Credentials.Ollama.BaseURL != "" {
			opts = append(opts, llm.WithOllamaBaseURL(cfg.Credentials.Ollama.BaseURL))
		}
		if model != "" {
			opts = append(opts, llm.WithOllamaModel(model))
		}
		return llm.NewOllamaLLM(opts...), nil

	case "openrouter":
		// OpenAI-compatible: base-url swap, per llm/openai.go's baseUrl override path.
		if cfg.Credentials.OpenRouter.APIKey == "" {
			return nil, ragerr.NewConfigurationError(provider, "OPENROUTER_API_KEY not configured", nil)
		}
		baseURL := cfg.Credentials.OpenRouter.BaseURL
		if baseURL == "" {
			baseURL = "https://openrouter.ai/api/v1"
		}
		return llm.NewOpenAILLM(baseURL, model, cfg.Credentials.OpenRouter.APIKey), nil

	case "bedrock":
		if cfg.Credentials.Bedrock.Region == "" {
			return nil, ragerr.NewConfigurationError(provider, "AWS_REGION not configured", nil)
		}
		opts := []llm.BedrockOption{llm.WithBedrockRegion(cfg.Credentials.Bedrock.Region)}
		if model != "" {
			opts = append(opts, llm.WithBedrockModel(model))
		}
		if cfg.Credentials.Bedrock.AccessKeyID != "" {
			opts = append(opts, llm.WithBedrockCredentials(
				cfg.Credentials.Bedrock.AccessKeyID,
				cfg.Credentials.Bedrock.SecretAccessKey,
				cfg.Credentials.Bedrock.SessionToken,
			))
		}
		return llm.NewBedrockLLM(opts...), nil

	case "google", "huggingface":
		// No chat-completion client implemented for these providers.
		// huggingface is embedding-only in this gateway; google has no
		// embedding client either (see newEmbeddingProvider).
		return nil, ragerr.NewConfigurationError(provider, "no chat completion client configured for provider", nil)

	default:
		return nil, ragerr.NewConfigurationError(provider, "unsupported provider", nil)
	}
}

// newEmbeddingProvider constructs the embedding.EmbeddingModel client for a
// provider.
func newEmbeddingProvider(cfg *config.Config, provider, model string) (embedding.EmbeddingModel, error) {
	switch provider {
	case "openai", "openrouter":
		key := cfg.Credentials.OpenAI.APIKey
		if provider == "openrouter" {
			key = cfg.Credentials.OpenRouter.APIKey
		}
		if key == "" {
			return nil, ragerr.NewConfigurationError(provider, "API key not configured", nil)
		}
		if model == "" {
			model = "text-embedding-3-small"
		}
		return embedding.NewOpenAIEmbedding(key, model), nil

	case "azure":
		if cfg.Credentials.Azure.APIKey == "" {
			return nil, ragerr.NewConfigurationError(provider, "AZURE_OPENAI_API_KEY not configured", nil)
		}
		return embedding.NewAzureOpenAIEmbeddingWithConfig(cfg.Credentials.Azure.BaseURL, cfg.Credentials.Azure.APIKey, model), nil

	case "ollama":
		opts := []embedding.OllamaEmbeddingOption{}
		if cfg.Credentials.Ollama.BaseURL != "" {
			opts = append(opts, embedding.WithOllamaEmbeddingBaseURL(cfg.Credentials.Ollama.BaseURL))
		}
		if model != "" {
			opts = append(opts, embedding.WithOllamaEmbeddingModel(model))
		}
		return embedding.NewOllamaEmbedding(opts...), nil

	case "huggingface":
		if cfg.Credentials.HuggingFace.APIKey == "" {
			return nil, ragerr.NewConfigurationError(provider, "HUGGINGFACE_API_KEY not configured", nil)
		}
		opts := []embedding.HuggingFaceEmbeddingOption{embedding.WithHuggingFaceAPIKey(cfg.Credentials.HuggingFace.APIKey)}
		if model != "" {
			opts = append(opts, embedding.WithHuggingFaceModel(model))
		}
		if cfg.Credentials.HuggingFace.BaseURL != "" {
			opts = append(opts, embedding.WithHuggingFaceBaseURL(cfg.Credentials.HuggingFace.BaseURL))
		}
		return embedding.NewHuggingFaceEmbedding(opts...), nil

	case "anthropic", "google":
		// Neither provider exposes a standalone embedding endpoint this
		// gateway wires; embedding requests for these providers fall back.
		return nil, ragerr.NewConfigurationError(provider, "no embedding client configured for provider", nil)

	default:
		return nil, ragerr.NewConfigurationError(provider, "unsupported provider", nil)
	}
}
