package cmd

import (
	"fmt"
	"time"

	"github.com/mattsolo1/grove-core/config"

	"github.com/mattsolo1/grove-callsim/pkg/dialogue"
	"github.com/mattsolo1/grove-callsim/pkg/llm"
	"github.com/mattsolo1/grove-callsim/pkg/simulation"
)

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

// CallsimConfig defines the structure for the 'callsim' section in grove.yml.
type CallsimConfig struct {
	Model            string   `yaml:"model"`
	Endpoint         string   `yaml:"endpoint"`
	APIKey           string   `yaml:"api_key"`
	Temperature      *float64 `yaml:"temperature"`
	Timeout          string   `yaml:"timeout"`
	Retries          *int     `yaml:"retries"`
	RetryBackoff     string   `yaml:"retry_backoff"`
	MaxAttempts      int      `yaml:"max_attempts"`
	MaxTurns         int      `yaml:"max_turns"`
	TurnDelay        string   `yaml:"turn_delay"`
	Opening          string   `yaml:"opening"`
	Output           string   `yaml:"output"`
	PolicyFile       string   `yaml:"policy_file"`
	CounterpartModel string   `yaml:"counterpart_model"`
	EvaluatorModel   string   `yaml:"evaluator_model"`
	ReviserModel     string   `yaml:"reviser_model"`
	PersonaModel     string   `yaml:"persona_model"`
}

// loadCallsimConfig loads the grove config hierarchy and unmarshals the
// 'callsim' extension. A missing grove.yml yields defaults.
func loadCallsimConfig() (*CallsimConfig, error) {
	coreCfg, err := config.LoadFrom(".")
	if err != nil {
		// It's okay if the core config doesn't exist, we'll just use an empty one.
		coreCfg = &config.Config{}
	}

	var cfg CallsimConfig
	if err := coreCfg.UnmarshalExtension("callsim", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse 'callsim' configuration from grove.yml: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *CallsimConfig) applyDefaults() {
	if c.Model == "" {
		c.Model = llm.DefaultModel
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = simulation.DefaultMaxAttempts
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = dialogue.DefaultMaxTurns
	}
	if c.Opening == "" {
		c.Opening = dialogue.DefaultOpening
	}
	if c.Output == "" {
		c.Output = simulation.DefaultArtifactPath
	}
}

// LLMConfig converts the collaborator settings into an llm.Config.
func (c *CallsimConfig) LLMConfig() (llm.Config, error) {
	cfg := llm.DefaultConfig()
	cfg.Model = c.Model
	cfg.Endpoint = c.Endpoint
	cfg.APIKey = c.APIKey
	if c.Temperature != nil {
		cfg.Temperature = *c.Temperature
	}
	if c.Retries != nil {
		cfg.Retries = *c.Retries
	}

	var err error
	if cfg.Timeout, err = parseDuration("timeout", c.Timeout, cfg.Timeout); err != nil {
		return cfg, err
	}
	if cfg.RetryBackoff, err = parseDuration("retry_backoff", c.RetryBackoff, cfg.RetryBackoff); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TurnDelayDuration parses turn_delay, defaulting to zero.
func (c *CallsimConfig) TurnDelayDuration() (time.Duration, error) {
	return parseDuration("turn_delay", c.TurnDelay, 0)
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return d, nil
}
