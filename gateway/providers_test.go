package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MadBomber/ragdoll-core/config"
)

func TestNewLLMProviderMissingCredentialsReturnsConfigurationError(t *testing.T) {
	cfg := config.New()
	_, err := newLLMProvider(cfg, "openai", "gpt-4o-mini")
	require.Error(t, err)
}

func TestNewLLMProviderBedrockRequiresRegion(t *testing.T) {
	cfg := config.New()
	_, err := newLLMProvider(cfg, "bedrock", "")
	require.Error(t, err)
}

func TestNewLLMProviderBedrockConstructsWithRegion(t *testing.T) {
	cfg := config.New(config.WithCredentials(config.Credentials{
		Bedrock: config.BedrockCredentials{Region: "us-east-1"},
	}))
	client, err := newLLMProvider(cfg, "bedrock", "anthropic.claude-3-sonnet")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewLLMProviderUnsupportedProvider(t *testing.T) {
	cfg := config.New()
	_, err := newLLMProvider(cfg, "does-not-exist", "")
	require.Error(t, err)
}

func TestNewEmbeddingProviderUnsupportedProvider(t *testing.T) {
	cfg := config.New()
	_, err := newEmbeddingProvider(cfg, "does-not-exist", "")
	require.Error(t, err)
}
