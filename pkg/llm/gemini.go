package llm

import (
	"context"
	"fmt"

	geminiconfig "github.com/mattsolo1/grove-gemini/pkg/config"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/mattsolo1/grove-callsim/pkg/failure"
)

// GeminiClient calls the Gemini API through the genai SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiClient creates a Gemini client. The API key comes from cfg or,
// failing that, from the grove-gemini key resolution chain.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		resolved, err := geminiconfig.ResolveAPIKey()
		if err != nil {
			return nil, failure.Wrap(failure.InvalidConfig, "resolving Gemini API key", err)
		}
		apiKey = resolved
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, failure.Wrap(failure.InvalidConfig, "creating Gemini client", err)
	}

	return &GeminiClient{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
	}, nil
}

// Generate sends prompt as a single user turn.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate (%s): %w", c.model, err)
	}

	text := resp.Text()
	log.WithFields(logrus.Fields{
		"model":          c.model,
		"prompt_bytes":   len(prompt),
		"response_bytes": len(text),
	}).Debug("Gemini response received")
	return text, nil
}
