package llm

import (
	"context"
	"fmt"

	"github.com/mattsolo1/grove-anthropic/pkg/anthropic"
	anthropicconfig "github.com/mattsolo1/grove-anthropic/pkg/config"

	"github.com/mattsolo1/grove-callsim/pkg/failure"
)

const anthropicMaxTokens = 4096

// AnthropicClient calls Claude models through the grove-anthropic runner.
// The runner does not expose temperature or a custom endpoint, so both are
// ignored for this provider.
type AnthropicClient struct {
	runner *anthropic.RequestRunner
	model  string
	apiKey string
}

// NewAnthropicClient resolves the API key and prepares a runner.
func NewAnthropicClient(cfg Config) (*AnthropicClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		resolved, err := anthropicconfig.ResolveAPIKey()
		if err != nil {
			return nil, failure.Wrap(failure.InvalidConfig, "resolving Anthropic API key", err)
		}
		apiKey = resolved
	}
	if cfg.Endpoint != "" {
		log.WithField("endpoint", cfg.Endpoint).Warn("Custom endpoint is not supported for Anthropic models; ignoring")
	}
	return &AnthropicClient{
		runner: anthropic.NewRequestRunner(),
		model:  cfg.Model,
		apiKey: apiKey,
	}, nil
}

// Generate runs a single request.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	opts := anthropic.RequestOptions{
		Model:     c.model,
		Prompt:    prompt,
		APIKey:    c.apiKey,
		MaxTokens: anthropicMaxTokens,
		Caller:    "grove-callsim",
	}
	response, err := c.runner.Run(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("anthropic generate (%s): %w", c.model, err)
	}
	return response, nil
}
