package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// DefaultBedrockModel is the default model to use.
const DefaultBedrockModel = "anthropic.claude-3-5-sonnet-20241022-v2:0"

// DefaultBedrockMaxTokens is the default max tokens.
const DefaultBedrockMaxTokens = 1024

// BedrockLLM is a chat-completion client for AWS Bedrock's Converse API,
// which presents a single request/response shape across the Anthropic,
// Amazon, Meta, Mistral, and Cohere models hosted on Bedrock.
type BedrockLLM struct {
	client      *bedrockruntime.Client
	model       string
	maxTokens   int
	temperature float32
	topP        float32
	region      string
	logger      *slog.Logger
}

// BedrockOption configures a BedrockLLM.
type BedrockOption func(*BedrockLLM)

// WithBedrockModel sets the model ID.
func WithBedrockModel(model string) BedrockOption {
	return func(b *BedrockLLM) { b.model = model }
}

// WithBedrockRegion sets the AWS region.
func WithBedrockRegion(region string) BedrockOption {
	return func(b *BedrockLLM) { b.region = region }
}

// WithBedrockCredentials sets explicit AWS credentials instead of the
// default provider chain.
func WithBedrockCredentials(accessKeyID, secretAccessKey, sessionToken string) BedrockOption {
	return func(b *BedrockLLM) {
		cfg, err := config.LoadDefaultConfig(context.Background(),
			config.WithRegion(b.region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)),
		)
		if err == nil {
			b.client = bedrockruntime.NewFromConfig(cfg)
		}
	}
}

// NewBedrockLLM builds a BedrockLLM. The AWS region defaults to
// AWS_REGION, then AWS_DEFAULT_REGION, then "us-east-1"; credentials come
// from the default provider chain unless WithBedrockCredentials overrides
// them.
func NewBedrockLLM(opts ...BedrockOption) *BedrockLLM {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	b := &BedrockLLM{
		model:       DefaultBedrockModel,
		maxTokens:   DefaultBedrockMaxTokens,
		temperature: 0.1,
		topP:        1.0,
		region:      region,
		logger:      slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.client == nil {
		if cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(b.region)); err == nil {
			b.client = bedrockruntime.NewFromConfig(cfg)
		}
	}
	return b
}

// Complete sends a single user-role message through Converse and
// concatenates the text blocks of the reply.
func (b *BedrockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.model),
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(b.maxTokens)),
			Temperature: aws.Float32(b.temperature),
			TopP:        aws.Float32(b.topP),
		},
	})
	if err != nil {
		b.logger.Warn("bedrock completion failed", "model", b.model, "error", err)
		return "", fmt.Errorf("bedrock converse: %w", err)
	}
	return extractConverseText(resp), nil
}

func extractConverseText(resp *bedrockruntime.ConverseOutput) string {
	if resp.Output == nil {
		return ""
	}
	msgOutput, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var parts []string
	for _, block := range msgOutput.Value.Content {
		if textBlock, ok := block.(*types.ContentBlockMemberText); ok {
			parts = append(parts, textBlock.Value)
		}
	}
	return strings.Join(parts, "")
}

var _ LLM = (*BedrockLLM)(nil)
