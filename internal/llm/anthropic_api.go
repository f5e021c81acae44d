package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dhabedank/learnstack/internal/core"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicAPIAdapter uses the Anthropic API directly.
type AnthropicAPIAdapter struct {
	client anthropic.Client
	config Config
}

// NewAnthropicAPIAdapter creates an Anthropic API adapter.
func NewAnthropicAPIAdapter(config Config) (*AnthropicAPIAdapter, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}
	config.APIKey = apiKey

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.AnthropicBaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.AnthropicBaseURL))
	}

	return &AnthropicAPIAdapter{
		client: anthropic.NewClient(opts...),
		config: config,
	}, nil
}

func (a *AnthropicAPIAdapter) Name() string {
	return "anthropic-api"
}

func (a *AnthropicAPIAdapter) IsAvailable() bool {
	return a.config.APIKey != ""
}

func (a *AnthropicAPIAdapter) Generate(ctx context.Context, call core.Call) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.config.modelOr(call.Stage, defaultAnthropicModel)),
		MaxTokens: int64(a.config.maxTokensOr(8192)),
		System: []anthropic.TextBlockParam{
			{Text: call.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(call.UserPrompt)),
		},
	}
	if a.config.Temperature != nil {
		params.Temperature = anthropic.Float(*a.config.Temperature)
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	// Extract text from response
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
