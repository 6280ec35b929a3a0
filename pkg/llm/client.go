// Package llm provides the language-model collaborators used by callsim.
//
// Every collaborator is reduced to a single operation, Generate, which maps a
// prompt to a response text. Providers are selected by model name.
package llm

import (
	"context"
	"strings"
	"time"

	anthropicmodels "github.com/mattsolo1/grove-anthropic/pkg/models"
	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/sirupsen/logrus"
)

var log = grovelogging.NewLogger("callsim.llm")

// MockModel selects the canned offline client.
const MockModel = "mock"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Client generates a response for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds collaborator settings. It is passed explicitly to every
// component that talks to a model.
type Config struct {
	Endpoint     string
	APIKey       string
	Model        string
	Temperature  float64
	Timeout      time.Duration // per call
	Retries      int           // additional calls after the first failure
	RetryBackoff time.Duration // base delay, doubled per retry
}

// DefaultConfig returns a Config with every optional field populated.
func DefaultConfig() Config {
	return Config{
		Model:        DefaultModel,
		Temperature:  0.8,
		Timeout:      2 * time.Minute,
		Retries:      2,
		RetryBackoff: time.Second,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = d.RetryBackoff
	}
	return c
}

// WithModel returns a copy of c using model when it is non-empty.
func (c Config) WithModel(model string) Config {
	if model != "" {
		c.Model = model
	}
	return c
}

// Provider names the backend a model is routed to.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderCommand   Provider = "llm-cli"
	ProviderMock      Provider = "mock"
)

// ResolveModel expands provider aliases to full model IDs.
func ResolveModel(model string) string {
	if resolved := anthropicmodels.ResolveAlias(model); resolved != model {
		return resolved
	}
	return model
}

// ProviderFor reports which backend serves model.
func ProviderFor(model string) Provider {
	switch {
	case model == MockModel:
		return ProviderMock
	case strings.HasPrefix(model, "gemini"):
		return ProviderGemini
	case strings.HasPrefix(model, "claude"):
		return ProviderAnthropic
	default:
		return ProviderCommand
	}
}

// NewClient builds the provider client for cfg.Model, wrapped with timeouts
// and retries.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	cfg = cfg.WithDefaults()
	cfg.Model = ResolveModel(cfg.Model)
	provider := ProviderFor(cfg.Model)

	log.WithFields(logrus.Fields{
		"model":    cfg.Model,
		"provider": provider,
	}).Debug("Creating collaborator client")

	var (
		base Client
		err  error
	)
	switch provider {
	case ProviderMock:
		base = NewCannedClient()
	case ProviderGemini:
		base, err = NewGeminiClient(ctx, cfg)
	case ProviderAnthropic:
		base, err = NewAnthropicClient(cfg)
	default:
		base = NewCommandClient(cfg)
	}
	if err != nil {
		return nil, err
	}
	return NewRetryingClient(base, cfg), nil
}
